package fillmath

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuestmarket/kuest-go/clob/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func standardAsks() []Level {
	return []Level{
		{Price: dec("0.40"), Size: dec("100")},
		{Price: dec("0.45"), Size: dec("50")},
	}
}

func TestMatchFill_FullFillAcrossLevels(t *testing.T) {
	// 100 @ 0.40 + 20 @ 0.45 = 49.0
	res := MatchFill(types.SideBuy, dec("120"), standardAsks())

	assert.True(t, res.FilledShares.Equal(dec("120")), "filled=%s", res.FilledShares)
	assert.True(t, res.TotalCost.Equal(dec("49.0")), "cost=%s", res.TotalCost)
	assert.InDelta(t, 0.4083, res.AvgPrice.InexactFloat64(), 0.0001)
	assert.False(t, res.Partial(dec("120")))
}

func TestMatchFill_PartialFill(t *testing.T) {
	// depth is 150: 100*0.40 + 50*0.45 = 62.5
	res := MatchFill(types.SideBuy, dec("200"), standardAsks())

	assert.True(t, res.FilledShares.Equal(dec("150")))
	assert.True(t, res.TotalCost.Equal(dec("62.5")))
	assert.True(t, res.Partial(dec("200")))
}

func TestMatchFill_NeverExceedsRequest(t *testing.T) {
	res := MatchFill(types.SideBuy, dec("30"), standardAsks())
	assert.True(t, res.FilledShares.Equal(dec("30")))
	assert.True(t, res.TotalCost.Equal(dec("12.0")))
	assert.True(t, res.AvgPrice.Equal(dec("0.4")))
}

func TestMatchFill_EmptyBook(t *testing.T) {
	res := MatchFill(types.SideSell, dec("10"), nil)
	assert.True(t, res.FilledShares.IsZero())
	assert.True(t, res.TotalCost.IsZero())
	assert.True(t, res.AvgPrice.IsZero())
	assert.True(t, res.Partial(dec("10")))
}

func TestMatchFill_SkipsMalformedLevels(t *testing.T) {
	levels := []Level{
		LevelFromStrings("abc", "50"),
		{Price: dec("0.50"), Size: dec("40")},
	}
	res := MatchFill(types.SideBuy, dec("40"), levels)
	assert.True(t, res.FilledShares.Equal(dec("40")))
	assert.True(t, res.TotalCost.Equal(dec("20")))
}

func TestMatchFill_ExactCostAccumulation(t *testing.T) {
	// Decimal arithmetic keeps cents exact where float64 would drift.
	levels := []Level{
		{Price: dec("0.1"), Size: dec("0.3")},
		{Price: dec("0.2"), Size: dec("0.3")},
	}
	res := MatchFill(types.SideBuy, dec("0.6"), levels)
	require.True(t, res.FilledShares.Equal(dec("0.6")))
	assert.True(t, res.TotalCost.Equal(dec("0.09")), "cost=%s", res.TotalCost)
}

func TestMatchFillStrings(t *testing.T) {
	res := MatchFillStrings(types.SideBuy, dec("120"), [][2]string{
		{"0.40", "100"},
		{"0.45", "50"},
	})
	assert.True(t, res.FilledShares.Equal(dec("120")))
	assert.True(t, res.TotalCost.Equal(dec("49")))
}
