package types

// LimitOrderIntent describes a user's limit trade intent before it is
// turned into a signed payload.
type LimitOrderIntent struct {
	// TokenID is the conditional token asset id.
	TokenID string

	// ConditionID ties the order to its market.
	ConditionID string

	// Price in units of collateral per share, within (0,1).
	Price float64

	// Size is the share quantity.
	Size float64

	Side Side

	// FeeRateBps comes from the fee-schedule collaborator and is passed
	// through unmodified.
	FeeRateBps *int

	// Nonce for on-chain cancellation, optional.
	Nonce *int64

	// Expiration unix seconds, optional (0 = never).
	Expiration *int64

	// Taker address; zero address means a public order.
	Taker *string
}

// MarketOrderIntent describes a user's market trade intent.
type MarketOrderIntent struct {
	TokenID     string
	ConditionID string

	// Amount is the quote-currency spend for a BUY and the share
	// quantity for a SELL.
	Amount float64

	Side Side

	// Price is an optional limit on the acceptable marginal price. When
	// unset, the builder derives it from the live book or the posted
	// outcome price.
	Price *float64

	FeeRateBps *int
	Nonce      *int64
	Taker      *string

	// OrderType restricts market orders to FOK or FAK.
	OrderType OrderType
}

// SignedOrder is the canonical order structure submitted to the matching
// engine. Amounts are micro-unit integers rendered as decimal strings.
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	ConditionID   string `json:"conditionId"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// OrderSubmission is the wire body of POST /order.
type OrderSubmission struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
}

// OrderResponse is the matching engine's reply to an order submission.
// The engine is inconsistent about field names across deployments, so
// both orderID spellings and all three error fields are accepted.
type OrderResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderID"`
	OrderIDAlt string `json:"orderId"`
	ErrorMsg   string `json:"errorMsg"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

// ResolvedOrderID returns whichever orderID spelling the engine used.
func (r *OrderResponse) ResolvedOrderID() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.OrderIDAlt
}

// RawError returns the first populated error field.
func (r *OrderResponse) RawError() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.ErrorMsg != "":
		return r.ErrorMsg
	default:
		return r.Message
	}
}

// OpenOrder is one resting order as returned by GET /data/orders.
type OpenOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Owner        string `json:"owner"`
	MakerAddress string `json:"maker_address"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Outcome      string `json:"outcome"`
	CreatedAt    int64  `json:"created_at"`
	Expiration   string `json:"expiration"`
	OrderType    string `json:"order_type"`
}

// OpenOrderParams filters GET /data/orders.
type OpenOrderParams struct {
	ID         string
	Market     string
	AssetID    string
	NextCursor string
}

// OpenOrdersPage is one page of the paginated open-orders read.
type OpenOrdersPage struct {
	Data       []OpenOrder `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// CreateOrderOptions carry per-market build parameters.
type CreateOrderOptions struct {
	TickSize TickSize
	// NegRisk selects the alternate signing domain for negative-risk
	// market families.
	NegRisk bool
}
