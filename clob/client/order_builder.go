package client

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kuestmarket/kuest-go/clob/signing"
	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/internal/bookstate"
	"github.com/kuestmarket/kuest-go/pkg/fillmath"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// RoundConfig fixes the decimal precision of each order leg for one
// tick size.
type RoundConfig struct {
	Price  int
	Size   int
	Amount int
}

var roundingConfig = map[types.TickSize]RoundConfig{
	types.TickSize01:    {Price: 1, Size: 2, Amount: 3},
	types.TickSize001:   {Price: 2, Size: 2, Amount: 4},
	types.TickSize0001:  {Price: 3, Size: 2, Amount: 5},
	types.TickSize00001: {Price: 4, Size: 2, Amount: 6},
}

// BookSource provides live depth for fill previews. *bookstate.Store
// satisfies it; a nil source disables previews and falls back to
// single-price derivation.
type BookSource interface {
	Book(instrumentID string) *bookstate.BookSnapshot
}

// OrderBuilder turns trade intents into signed order payloads.
type OrderBuilder struct {
	client *Client
	books  BookSource
}

func NewOrderBuilder(client *Client, books BookSource) *OrderBuilder {
	return &OrderBuilder{client: client, books: books}
}

// BuildLimitOrder constructs and signs a resting order.
// A user signing rejection surfaces as signing.ErrSigningCancelled.
func (ob *OrderBuilder) BuildLimitOrder(intent *types.LimitOrderIntent, opts *types.CreateOrderOptions) (*types.SignedOrder, error) {
	if !intent.Side.Valid() {
		return nil, errors.Errorf("invalid side: %q", intent.Side)
	}
	if intent.Price <= 0 || intent.Price >= 1 {
		return nil, errors.Errorf("price out of range: %v", intent.Price)
	}
	if intent.Size <= 0 {
		return nil, errors.Errorf("size must be positive: %v", intent.Size)
	}

	rc, ok := roundingConfig[opts.TickSize]
	if !ok {
		return nil, errors.Errorf("unsupported tick size: %s", opts.TickSize)
	}

	price := decimal.NewFromFloat(intent.Price).Round(int32(rc.Price))
	size := decimal.NewFromFloat(intent.Size).RoundDown(int32(rc.Size))

	var makerAmt, takerAmt decimal.Decimal
	if intent.Side == types.SideBuy {
		// Maker pays collateral, taker leg is shares.
		takerAmt = size
		makerAmt = size.Mul(price).RoundUp(int32(rc.Amount))
	} else {
		// Maker offers shares, taker leg is collateral proceeds.
		makerAmt = size
		takerAmt = size.Mul(price).RoundDown(int32(rc.Amount))
	}

	return ob.signOrder(orderParams{
		TokenID:     intent.TokenID,
		ConditionID: intent.ConditionID,
		Side:        intent.Side,
		MakerAmount: makerAmt,
		TakerAmount: takerAmt,
		FeeRateBps:  intent.FeeRateBps,
		Nonce:       intent.Nonce,
		Expiration:  intent.Expiration,
		Taker:       intent.Taker,
		NegRisk:     opts.NegRisk,
	})
}

// BuildMarketOrder constructs and signs an immediate-execution order.
// The share leg of a BUY comes from a live fill preview when depth is
// available, else from spend divided by the best known single price.
func (ob *OrderBuilder) BuildMarketOrder(intent *types.MarketOrderIntent, market *types.Market, opts *types.CreateOrderOptions) (*types.SignedOrder, error) {
	if !intent.Side.Valid() {
		return nil, errors.Errorf("invalid side: %q", intent.Side)
	}
	if intent.Amount <= 0 {
		return nil, errors.Errorf("amount must be positive: %v", intent.Amount)
	}

	rc, ok := roundingConfig[opts.TickSize]
	if !ok {
		return nil, errors.Errorf("unsupported tick size: %s", opts.TickSize)
	}

	amount := decimal.NewFromFloat(intent.Amount)

	var makerAmt, takerAmt decimal.Decimal
	if intent.Side == types.SideBuy {
		spend := amount.RoundDown(int32(rc.Amount))
		shares, err := ob.deriveBuyShares(intent, market, spend)
		if err != nil {
			return nil, err
		}
		makerAmt = spend
		takerAmt = shares.RoundDown(int32(rc.Size))
	} else {
		shares := amount.RoundDown(int32(rc.Size))
		proceeds, err := ob.deriveSellProceeds(intent, market, shares)
		if err != nil {
			return nil, err
		}
		makerAmt = shares
		takerAmt = proceeds.RoundDown(int32(rc.Amount))
	}

	return ob.signOrder(orderParams{
		TokenID:     intent.TokenID,
		ConditionID: intent.ConditionID,
		Side:        intent.Side,
		MakerAmount: makerAmt,
		TakerAmount: takerAmt,
		FeeRateBps:  intent.FeeRateBps,
		Nonce:       intent.Nonce,
		Taker:       intent.Taker,
		NegRisk:     opts.NegRisk,
	})
}

// deriveBuyShares estimates how many shares a collateral spend obtains.
// Preference order: walk the live ask ladder, then spend/price with the
// best known single price.
func (ob *OrderBuilder) deriveBuyShares(intent *types.MarketOrderIntent, market *types.Market, spend decimal.Decimal) (decimal.Decimal, error) {
	if asks := ob.askLevels(intent.TokenID); len(asks) > 0 {
		if shares := previewSharesForSpend(spend, asks); shares.IsPositive() {
			return shares, nil
		}
	}

	price, err := ob.fallbackPrice(intent, market)
	if err != nil {
		return decimal.Zero, err
	}
	return spend.DivRound(price, 12), nil
}

// deriveSellProceeds estimates the collateral received for a share
// quantity, symmetric to the BUY derivation.
func (ob *OrderBuilder) deriveSellProceeds(intent *types.MarketOrderIntent, market *types.Market, shares decimal.Decimal) (decimal.Decimal, error) {
	if bids := ob.bidLevels(intent.TokenID); len(bids) > 0 {
		fill := fillmath.MatchFill(types.SideSell, shares, bids)
		if fill.FilledShares.IsPositive() {
			if fill.Partial(shares) {
				// Unfilled remainder is priced at the previewed average.
				// Best-effort estimate, not an execution guarantee.
				rest := shares.Sub(fill.FilledShares)
				return fill.TotalCost.Add(rest.Mul(fill.AvgPrice)), nil
			}
			return fill.TotalCost, nil
		}
	}

	price, err := ob.fallbackPrice(intent, market)
	if err != nil {
		return decimal.Zero, err
	}
	return shares.Mul(price), nil
}

// fallbackPrice resolves the best known single price for the intent's
// token: the explicit limit, the outcome's posted price, then the
// market probability. Best effort only, never an execution guarantee.
func (ob *OrderBuilder) fallbackPrice(intent *types.MarketOrderIntent, market *types.Market) (decimal.Decimal, error) {
	if intent.Price != nil && *intent.Price > 0 {
		return decimal.NewFromFloat(*intent.Price), nil
	}
	if market != nil {
		if token, ok := market.TokenByID(intent.TokenID); ok && token.Price > 0 {
			return decimal.NewFromFloat(token.Price), nil
		}
		if market.Probability > 0 {
			return decimal.NewFromFloat(market.Probability / 100), nil
		}
	}
	return decimal.Zero, errors.Errorf("no price available for token %s", intent.TokenID)
}

func (ob *OrderBuilder) askLevels(tokenID string) []fillmath.Level {
	return ob.levels(tokenID, false)
}

func (ob *OrderBuilder) bidLevels(tokenID string) []fillmath.Level {
	return ob.levels(tokenID, true)
}

func (ob *OrderBuilder) levels(tokenID string, bids bool) []fillmath.Level {
	if ob.books == nil {
		return nil
	}
	book := ob.books.Book(tokenID)
	if book == nil {
		return nil
	}
	side := book.Asks
	if bids {
		side = book.Bids
	}
	out := make([]fillmath.Level, 0, len(side))
	for _, lvl := range side {
		out = append(out, fillmath.LevelFromStrings(lvl.Price, lvl.Size))
	}
	return out
}

// previewSharesForSpend walks the ask ladder taking whole levels until
// the spend is exhausted. Mirrors the matching walk but budgeted in
// collateral instead of shares.
func previewSharesForSpend(spend decimal.Decimal, asks []fillmath.Level) decimal.Decimal {
	remaining := spend
	shares := decimal.Zero

	for _, lvl := range asks {
		if !remaining.IsPositive() {
			break
		}
		if !lvl.Price.IsPositive() || !lvl.Size.IsPositive() {
			continue
		}

		levelValue := lvl.Price.Mul(lvl.Size)
		if levelValue.LessThanOrEqual(remaining) {
			shares = shares.Add(lvl.Size)
			remaining = remaining.Sub(levelValue)
			continue
		}

		shares = shares.Add(remaining.DivRound(lvl.Price, 12))
		remaining = decimal.Zero
	}

	return shares
}

// orderParams is the fully derived order before hashing.
type orderParams struct {
	TokenID     string
	ConditionID string
	Side        types.Side
	MakerAmount decimal.Decimal
	TakerAmount decimal.Decimal
	FeeRateBps  *int
	Nonce       *int64
	Expiration  *int64
	Taker       *string
	NegRisk     bool
}

// signOrder renders the micro-unit payload and routes it through the
// wallet signer against the chain's exchange contract.
func (ob *OrderBuilder) signOrder(p orderParams) (*types.SignedOrder, error) {
	if ob.client.signer == nil {
		return nil, ErrTradingDisabled
	}

	contracts, err := GetContractConfig(ob.client.chainID)
	if err != nil {
		return nil, err
	}

	tokenID := new(big.Int)
	if _, ok := tokenID.SetString(p.TokenID, 10); !ok {
		return nil, errors.Errorf("invalid token id: %s", p.TokenID)
	}

	makerAmount := toMicroUnits(p.MakerAmount)
	takerAmount := toMicroUnits(p.TakerAmount)
	if makerAmount.Sign() <= 0 || takerAmount.Sign() <= 0 {
		return nil, errors.Errorf("derived amounts must be positive: maker=%s taker=%s", makerAmount, takerAmount)
	}

	taker := zeroAddress
	if p.Taker != nil && *p.Taker != "" {
		taker = *p.Taker
	}

	feeRateBps := big.NewInt(0)
	if p.FeeRateBps != nil {
		feeRateBps = big.NewInt(int64(*p.FeeRateBps))
	}

	nonce := big.NewInt(0)
	if p.Nonce != nil {
		nonce = big.NewInt(*p.Nonce)
	}

	expiration := big.NewInt(0)
	if p.Expiration != nil {
		expiration = big.NewInt(*p.Expiration)
	}

	signerAddress := ob.client.signer.Address().Hex()
	maker := ob.client.MakerAddress()
	salt := time.Now().UnixNano()

	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddress,
		Taker:         taker,
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    expiration,
		Nonce:         nonce,
		FeeRateBps:    feeRateBps,
		Side:          p.Side,
		SignatureType: ob.client.signatureType(),
	}

	signature, err := signing.BuildOrderSignature(
		ob.client.signer,
		ob.client.chainID,
		contracts.ExchangeAddress(p.NegRisk),
		orderData,
	)
	if err != nil {
		// ErrSigningCancelled passes through so callers can treat a
		// user rejection as its own outcome.
		return nil, err
	}

	return &types.SignedOrder{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddress,
		Taker:         taker,
		ConditionID:   p.ConditionID,
		TokenID:       p.TokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    expiration.String(),
		Nonce:         nonce.String(),
		FeeRateBps:    feeRateBps.String(),
		Side:          p.Side,
		SignatureType: int(ob.client.signatureType()),
		Signature:     signature,
	}, nil
}

// toMicroUnits scales a decimal amount to the 1e6 fixed-point integers
// the exchange contract expects. Truncation, never rounding up.
func toMicroUnits(v decimal.Decimal) *big.Int {
	return v.Shift(types.MicroUnitDecimals).Truncate(0).BigInt()
}
