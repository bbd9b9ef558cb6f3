package client

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/kuestmarket/kuest-go/clob/signing"
	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/pkg/ratelimit"
)

const (
	// orderTimeout bounds order placement and cancellation.
	orderTimeout = 20 * time.Second

	// readTimeout bounds read-only endpoints.
	readTimeout = 8 * time.Second
)

// ErrTradingDisabled is returned when an authenticated call is made
// without a full credential set. Callers surface it as a distinct
// onboarding prompt, not a generic error.
var ErrTradingDisabled = errors.New("trading credentials not configured")

// Config assembles a matching-engine client.
type Config struct {
	Host    string
	ChainID types.Chain
	Creds   types.APICreds

	// Signer is the external wallet capability used for order signing.
	Signer signing.Signer

	// CustodyAddress is the deployed custody wallet, empty when the
	// user trades from their own address.
	CustodyAddress string
}

// Client talks to the matching engine over authenticated REST.
type Client struct {
	host           string
	chainID        types.Chain
	creds          types.APICreds
	signer         signing.Signer
	custodyAddress string

	http        *resty.Client
	rateLimiter *ratelimit.Manager
}

// NewClient builds a matching-engine client. The signer may be nil for
// read-only use.
func NewClient(cfg Config) *Client {
	host := strings.TrimSuffix(cfg.Host, "/")

	http := resty.New().
		SetBaseURL(host).
		SetHeader("User-Agent", "kuest-go-clob").
		SetHeader("Accept", "*/*").
		SetHeader("Content-Type", "application/json")

	return &Client{
		host:           host,
		chainID:        cfg.ChainID,
		creds:          cfg.Creds,
		signer:         cfg.Signer,
		custodyAddress: cfg.CustodyAddress,
		http:           http,
		rateLimiter:    ratelimit.NewManager(),
	}
}

func (c *Client) Host() string         { return c.host }
func (c *Client) ChainID() types.Chain { return c.chainID }

// MakerAddress is the address that acts as order maker: the custody
// wallet when deployed, otherwise the signing address itself.
func (c *Client) MakerAddress() string {
	if c.custodyAddress != "" {
		return c.custodyAddress
	}
	if c.signer != nil {
		return c.signer.Address().Hex()
	}
	return ""
}

// signatureType follows the maker choice: custody wallets verify
// through the proxy path.
func (c *Client) signatureType() types.SignatureType {
	if c.custodyAddress != "" {
		return types.SignatureTypeProxy
	}
	return types.SignatureTypeEOA
}

// canAuth reports whether authenticated endpoints are usable.
func (c *Client) canAuth() error {
	if c.signer == nil || !c.creds.HasTradingCreds() {
		return ErrTradingDisabled
	}
	return nil
}

// authHeaders produces the per-request HMAC header set.
func (c *Client) authHeaders(method, path string, body *string) (map[string]string, error) {
	headers, err := signing.CreateAuthHeaders(
		c.signer.Address().Hex(),
		c.creds,
		&types.AuthHeaderArgs{Method: method, RequestPath: path, Body: body},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return headers.Map(), nil
}

// request returns a request bound to a deadline derived from ctx.
// Cancelling the returned func releases the deadline timer.
func (c *Client) request(ctx context.Context, timeout time.Duration) (*resty.Request, context.CancelFunc) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	return c.http.R().SetContext(reqCtx), cancel
}

// ServerTime reads the engine clock. Useful as an unauthenticated
// connectivity check and to detect local clock skew before HMAC
// timestamps are produced.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	req, cancel := c.request(ctx, readTimeout)
	defer cancel()

	resp, err := req.Get(EndpointTime)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get server time")
	}
	if !resp.IsSuccess() {
		return time.Time{}, errors.Errorf("get server time: status %d: %s", resp.StatusCode(), resp.Body())
	}

	secs, err := strconv.ParseInt(strings.TrimSpace(string(resp.Body())), 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse server time %q", resp.Body())
	}
	return time.Unix(secs, 0), nil
}
