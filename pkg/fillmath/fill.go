// Package fillmath computes achievable fills against a price ladder. It
// is the client-side replica of the matching walk the engine performs,
// used for previews and sell sizing only.
package fillmath

import (
	"github.com/shopspring/decimal"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// Level is one aggregated price level of the opposing book side.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// LevelFromStrings parses the wire's decimal strings. A parse failure
// yields a zero level, which the walk skips.
func LevelFromStrings(price, size string) Level {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Level{}
	}
	s, err := decimal.NewFromString(size)
	if err != nil {
		return Level{}
	}
	return Level{Price: p, Size: s}
}

// FillResult summarizes a walk over the book.
type FillResult struct {
	// FilledShares never exceeds the requested quantity.
	FilledShares decimal.Decimal

	// TotalCost is Σ taken×price, exact.
	TotalCost decimal.Decimal

	// AvgPrice is TotalCost/FilledShares, zero when nothing filled.
	AvgPrice decimal.Decimal
}

// Partial reports whether the book was exhausted before the request was
// satisfied. A partial fill is a valid outcome, not an error.
func (r FillResult) Partial(requested decimal.Decimal) bool {
	return r.FilledShares.LessThan(requested)
}

// MatchFill walks levels best-price-first, taking min(remaining, size)
// at each level until the request is satisfied or the book runs out.
// levels must be the opposing side: asks for a BUY, bids for a SELL.
func MatchFill(side types.Side, requested decimal.Decimal, levels []Level) FillResult {
	_ = side // the walk is symmetric; the caller picks the opposing side

	remaining := requested
	res := FillResult{
		FilledShares: decimal.Zero,
		TotalCost:    decimal.Zero,
	}

	for _, lvl := range levels {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if lvl.Size.LessThanOrEqual(decimal.Zero) || lvl.Price.LessThanOrEqual(decimal.Zero) {
			continue
		}
		taken := decimal.Min(remaining, lvl.Size)
		res.FilledShares = res.FilledShares.Add(taken)
		res.TotalCost = res.TotalCost.Add(taken.Mul(lvl.Price))
		remaining = remaining.Sub(taken)
	}

	if res.FilledShares.IsPositive() {
		res.AvgPrice = res.TotalCost.DivRound(res.FilledShares, 12)
	}
	return res
}

// MatchFillStrings is MatchFill over wire-format (price,size) string
// pairs, in book order.
func MatchFillStrings(side types.Side, requested decimal.Decimal, levels [][2]string) FillResult {
	parsed := make([]Level, 0, len(levels))
	for _, lvl := range levels {
		parsed = append(parsed, LevelFromStrings(lvl[0], lvl[1]))
	}
	return MatchFill(side, requested, parsed)
}
