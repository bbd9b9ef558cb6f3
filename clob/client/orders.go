package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// PostOrder submits a signed order. Transport failures and non-2xx
// statuses surface as errors; business rejections come back inside the
// response body for the caller to classify.
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (*types.OrderResponse, error) {
	if err := c.canAuth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, "clob:order:post"); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	submission := types.OrderSubmission{
		Order:     *order,
		Owner:     c.creds.Key,
		OrderType: orderType,
	}

	bodyBytes, err := json.Marshal(submission)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order submission")
	}
	bodyStr := string(bodyBytes)

	headers, err := c.authHeaders(http.MethodPost, EndpointPostOrder, &bodyStr)
	if err != nil {
		return nil, err
	}

	req, cancel := c.request(ctx, orderTimeout)
	defer cancel()

	resp, err := req.
		SetHeaders(headers).
		SetBody(bodyBytes).
		Post(EndpointPostOrder)
	if err != nil {
		return nil, errors.Wrap(err, "post order")
	}

	orderResp, err := parseOrderResponse(resp.Body())
	if err != nil {
		return nil, errors.Wrapf(err, "parse order response (status %d)", resp.StatusCode())
	}
	return orderResp, nil
}

// CancelOrder removes a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.OrderResponse, error) {
	if err := c.canAuth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, "clob:order:delete"); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	body, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return nil, errors.Wrap(err, "marshal cancel body")
	}
	bodyStr := string(body)

	headers, err := c.authHeaders(http.MethodDelete, EndpointCancelOrder, &bodyStr)
	if err != nil {
		return nil, err
	}

	req, cancel := c.request(ctx, orderTimeout)
	defer cancel()

	resp, err := req.
		SetHeaders(headers).
		SetBody(body).
		Delete(EndpointCancelOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "cancel order %s", orderID)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return nil, errors.Errorf("cancel order %s: status %d: %s", orderID, resp.StatusCode(), resp.Body())
	}

	orderResp, err := parseOrderResponse(resp.Body())
	if err != nil {
		return nil, errors.Wrapf(err, "parse cancel response for %s", orderID)
	}
	return orderResp, nil
}

// GetOpenOrders returns one page of the caller's resting orders.
// Page through with params.NextCursor until the returned cursor is
// empty or "LTE=".
func (c *Client) GetOpenOrders(ctx context.Context, params *types.OpenOrderParams) (*types.OpenOrdersPage, error) {
	if err := c.canAuth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, "clob:orders:get"); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	headers, err := c.authHeaders(http.MethodGet, EndpointGetOpenOrders, nil)
	if err != nil {
		return nil, err
	}

	query := map[string]string{}
	if params != nil {
		if params.ID != "" {
			query["id"] = params.ID
		}
		if params.Market != "" {
			query["market"] = params.Market
		}
		if params.AssetID != "" {
			query["asset_id"] = params.AssetID
		}
		if params.NextCursor != "" {
			query["next_cursor"] = params.NextCursor
		}
	}

	req, cancel := c.request(ctx, readTimeout)
	defer cancel()

	resp, err := req.
		SetHeaders(headers).
		SetQueryParams(query).
		Get(EndpointGetOpenOrders)
	if err != nil {
		return nil, errors.Wrap(err, "get open orders")
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("get open orders: status %d: %s", resp.StatusCode(), resp.Body())
	}

	return parseOpenOrdersPage(resp.Body())
}

// GetAllOpenOrders walks every page of the open-orders read.
func (c *Client) GetAllOpenOrders(ctx context.Context, params *types.OpenOrderParams) ([]types.OpenOrder, error) {
	var filter types.OpenOrderParams
	if params != nil {
		filter = *params
	}

	var all []types.OpenOrder
	for {
		page, err := c.GetOpenOrders(ctx, &filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)

		if page.NextCursor == "" || page.NextCursor == endOfCursor {
			return all, nil
		}
		filter.NextCursor = page.NextCursor
	}
}

// endOfCursor is the engine's base64 end-of-pagination marker ("-1").
const endOfCursor = "LTE="

// parseOrderResponse tolerates the engine's response shapes: a bare
// object, an object wrapped in a data field, or an array.
func parseOrderResponse(body []byte) (*types.OrderResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &types.OrderResponse{}, nil
	}

	if trimmed[0] == '[' {
		var list []types.OrderResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Errorf("unrecognized order response: %s", trimmed)
		}
		if len(list) == 0 {
			return &types.OrderResponse{}, nil
		}
		return &list[0], nil
	}

	// A populated data wrapper takes precedence over the bare object
	// read, which would otherwise swallow it as an all-zero value.
	var wrapped struct {
		Data *types.OrderResponse `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil &&
		(wrapped.Data.ResolvedOrderID() != "" || wrapped.Data.RawError() != "" || wrapped.Data.Success) {
		return wrapped.Data, nil
	}

	var direct types.OrderResponse
	if err := json.Unmarshal(trimmed, &direct); err != nil {
		return nil, errors.Errorf("unrecognized order response: %s", trimmed)
	}
	return &direct, nil
}

// parseOpenOrdersPage tolerates both the paginated object shape and the
// legacy bare-array shape.
func parseOpenOrdersPage(body []byte) (*types.OpenOrdersPage, error) {
	var page types.OpenOrdersPage
	if err := json.Unmarshal(body, &page); err == nil && (page.Data != nil || page.NextCursor != "") {
		return &page, nil
	}

	var bare []types.OpenOrder
	if err := json.Unmarshal(body, &bare); err == nil {
		return &types.OpenOrdersPage{Data: bare, Count: len(bare)}, nil
	}

	return nil, errors.Errorf("unrecognized open orders response: %s", body)
}
