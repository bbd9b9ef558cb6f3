package types

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of BUY/SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderKind tags an order as market or limit before it is mapped to a
// matching-engine execution type.
type OrderKind string

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
)

// OrderType is the matching-engine execution sub-type.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancelled
	OrderTypeFOK OrderType = "FOK" // Fill or Kill
	OrderTypeGTD OrderType = "GTD" // Good Till Date
	OrderTypeFAK OrderType = "FAK" // Fill and Kill
)

// Chain identifies the settlement network.
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType selects how the order signature is verified on-chain.
// The value is part of the signed payload, not metadata.
type SignatureType int

const (
	// SignatureTypeEOA signs directly from the user's own wallet.
	SignatureTypeEOA SignatureType = 0
	// SignatureTypeProxy signs through a deployed custody/proxy wallet,
	// which then acts as the order maker.
	SignatureTypeProxy SignatureType = 2
)

// AssetType distinguishes collateral from conditional token balances.
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// TickSize is the market's minimum price increment.
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// APICreds are the HMAC trading credentials issued by the matching engine.
type APICreds struct {
	Key        string
	Secret     string
	Passphrase string
}

// HasTradingCreds reports whether all three credential parts are present.
func (c APICreds) HasTradingCreds() bool {
	return c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// MicroUnitDecimals is the fixed-point scale of order amounts:
// 1 unit = 1e6 micro-units (USDC and conditional tokens both use 6).
const MicroUnitDecimals = 6
