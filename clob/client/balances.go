package client

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// Ledger reports the user's holdings. SELL submissions consult it
// before anything reaches the matching engine.
type Ledger interface {
	// Shares returns the user's conditional token balance in whole
	// share units.
	Shares(ctx context.Context, tokenID string) (decimal.Decimal, error)
}

// BalanceAllowance is the engine's view of one asset's balance and
// spend approval, in micro-units rendered as decimal strings.
type BalanceAllowance struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// GetBalanceAllowance reads the authenticated user's balance for one
// asset. Pass an empty tokenID for the collateral balance.
func (c *Client) GetBalanceAllowance(ctx context.Context, assetType types.AssetType, tokenID string) (*BalanceAllowance, error) {
	if err := c.canAuth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, "clob:balance:get"); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	headers, err := c.authHeaders(http.MethodGet, EndpointGetBalanceAllowance, nil)
	if err != nil {
		return nil, err
	}

	query := map[string]string{
		"asset_type":     string(assetType),
		"signature_type": "0",
	}
	if tokenID != "" {
		query["token_id"] = tokenID
	}

	req, cancel := c.request(ctx, readTimeout)
	defer cancel()

	var out BalanceAllowance
	resp, err := req.
		SetHeaders(headers).
		SetQueryParams(query).
		SetResult(&out).
		Get(EndpointGetBalanceAllowance)
	if err != nil {
		return nil, errors.Wrap(err, "get balance allowance")
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("get balance allowance: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return &out, nil
}

// Shares implements Ledger against the engine's own balance read,
// converting micro-units back to whole shares.
func (c *Client) Shares(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	bal, err := c.GetBalanceAllowance(ctx, types.AssetTypeConditional, tokenID)
	if err != nil {
		return decimal.Zero, err
	}

	micro, err := decimal.NewFromString(bal.Balance)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse balance %q", bal.Balance)
	}
	return micro.Shift(-types.MicroUnitDecimals), nil
}
