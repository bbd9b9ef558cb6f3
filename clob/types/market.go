package types

// Market is the per-market reference data the order pipeline needs. It is
// fetched from the markets read API and cached by callers.
type Market struct {
	ConditionID     string   `json:"condition_id"`
	QuestionID      string   `json:"question_id"`
	Slug            string   `json:"market_slug"`
	Tokens          []Token  `json:"tokens"`
	TickSize        TickSize `json:"minimum_tick_size"`
	NegRisk         bool     `json:"neg_risk"`
	Active          bool     `json:"active"`
	Closed          bool     `json:"closed"`
	AcceptingOrders bool     `json:"accepting_orders"`

	// Probability is the market-level percent estimate, 0-100. Used only
	// as a last-resort price fallback when no token price is posted.
	Probability float64 `json:"probability"`
}

// Token is one outcome leg of a market.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// TokenByID returns the outcome token with the given id, if present.
func (m *Market) TokenByID(tokenID string) (Token, bool) {
	for _, t := range m.Tokens {
		if t.TokenID == tokenID {
			return t, true
		}
	}
	return Token{}, false
}
