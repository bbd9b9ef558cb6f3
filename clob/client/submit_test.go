package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuestmarket/kuest-go/clob/errclass"
	"github.com/kuestmarket/kuest-go/clob/signing"
	"github.com/kuestmarket/kuest-go/clob/types"
)

type fakeLedger struct {
	shares decimal.Decimal
	err    error
	calls  int
}

func (l *fakeLedger) Shares(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	l.calls++
	return l.shares, l.err
}

// cancellingSigner simulates a user rejecting the wallet prompt.
type cancellingSigner struct{}

func (cancellingSigner) Address() common.Address { return common.HexToAddress("0x1") }
func (cancellingSigner) SignHash([]byte) ([]byte, error) {
	return nil, signing.ErrSigningCancelled
}

type recordingSink struct {
	mu  sync.Mutex
	raw []string
}

func (s *recordingSink) RecordUnclassified(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append(s.raw, raw)
}

func serverClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Host:    srv.URL,
		ChainID: types.ChainAmoy,
		Creds: types.APICreds{
			Key:        "key",
			Secret:     "c2VjcmV0LXNlY3JldC1zZWNyZXQ=",
			Passphrase: "pass",
		},
		Signer: testSigner(t),
	})
	return c, srv
}

func limitIntent() *types.LimitOrderIntent {
	return &types.LimitOrderIntent{
		TokenID:     "123456",
		ConditionID: "cond-1",
		Price:       0.5,
		Size:        10,
		Side:        types.SideBuy,
	}
}

var opts001 = &types.CreateOrderOptions{TickSize: types.TickSize001}

func TestSubmit_PlacedCarriesOrderID(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/order", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"orderID": "0xabc",
		})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, "0xabc", res.OrderID)
	assert.Empty(t, res.Message)
}

func TestSubmit_SuccessWithoutOrderIDIsFailure(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, errclass.GenericMessage, res.Message)
	assert.Empty(t, res.OrderID)
}

func TestSubmit_RejectionIsClassified(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  false,
			"errorMsg": "order expired",
		})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, errclass.KindOrderExpired, res.Kind)
	assert.Equal(t, "This order expired. Refresh prices and submit again.", res.Message)
}

func TestSubmit_UnclassifiedRejectionIsRecorded(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "flux capacitor misaligned"})
	}))

	sink := &recordingSink{}
	s := NewSubmitter(c, NewOrderBuilder(c, nil), errclass.New(sink), &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, errclass.GenericMessage, res.Message)
	assert.Equal(t, []string{"flux capacitor misaligned"}, sink.raw)
}

func TestSubmit_SellInsufficientBalanceShortCircuits(t *testing.T) {
	var hits int
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	ledger := &fakeLedger{shares: decimal.NewFromInt(5)}
	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, ledger)

	intent := limitIntent()
	intent.Side = types.SideSell
	intent.Size = 10

	res, err := s.SubmitLimitOrder(context.Background(), "", intent, opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, errclass.KindInsufficientBalance, res.Kind)
	assert.Equal(t, 1, ledger.calls)
	assert.Zero(t, hits, "engine must never see the order")
}

func TestSubmit_SellWithSufficientBalanceProceeds(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"orderId": "0xdef"})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{shares: decimal.NewFromInt(100)})

	intent := limitIntent()
	intent.Side = types.SideSell

	res, err := s.SubmitLimitOrder(context.Background(), "", intent, opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, "0xdef", res.OrderID)
}

func TestSubmit_UserCancelledSigningIsNotAnError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Host:    srv.URL,
		ChainID: types.ChainAmoy,
		Creds:   types.APICreds{Key: "k", Secret: "c2Vj", Passphrase: "p"},
		Signer:  cancellingSigner{},
	})

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Empty(t, res.Message)
	assert.Zero(t, hits)
}

func TestSubmit_TradingDisabledWithoutCreds(t *testing.T) {
	c := NewClient(Config{
		Host:    "https://clob.example.com",
		ChainID: types.ChainAmoy,
		Signer:  testSigner(t),
	})

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTradingDisabled, res.Outcome)
}

func TestSubmit_TransportFailureIsGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	c := NewClient(Config{
		Host:    srv.URL,
		ChainID: types.ChainAmoy,
		Creds:   types.APICreds{Key: "k", Secret: "c2Vj", Passphrase: "p"},
		Signer:  testSigner(t),
	})

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, errclass.GenericMessage, res.Message)
}

func TestSubmit_SingleFlightPerActionKey(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	var startedOnce sync.Once

	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-proceed
		json.NewEncoder(w).Encode(map[string]interface{}{"orderID": "0xabc"})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := s.SubmitLimitOrder(context.Background(), "act-1", limitIntent(), opts001)
		assert.NoError(t, err)
		assert.Equal(t, OutcomePlaced, res.Outcome)
	}()

	<-started
	_, err := s.SubmitLimitOrder(context.Background(), "act-1", limitIntent(), opts001)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(proceed)
	wg.Wait()

	// After the first finishes the key is free again.
	res, err := s.SubmitLimitOrder(context.Background(), "act-1", limitIntent(), opts001)
	require.NoError(t, err)
	assert.Equal(t, OutcomePlaced, res.Outcome)
}

func TestSubmit_MarketOrderDefaultsToFOK(t *testing.T) {
	var gotType string
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub types.OrderSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		gotType = string(sub.OrderType)
		json.NewEncoder(w).Encode(map[string]interface{}{"orderID": "0xabc"})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitMarketOrder(context.Background(), "", &types.MarketOrderIntent{
		TokenID: "123456",
		Amount:  10,
		Side:    types.SideBuy,
		Price:   f64(0.5),
	}, nil, opts001)
	require.NoError(t, err)

	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, "FOK", gotType)
}

func TestSubmit_LimitWithExpirationIsGTD(t *testing.T) {
	var gotType string
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub types.OrderSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		gotType = string(sub.OrderType)
		json.NewEncoder(w).Encode(map[string]interface{}{"orderID": "0xabc"})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})

	intent := limitIntent()
	exp := time.Now().Add(time.Hour).Unix()
	intent.Expiration = &exp

	_, err := s.SubmitLimitOrder(context.Background(), "", intent, opts001)
	require.NoError(t, err)
	assert.Equal(t, "GTD", gotType)
}

func TestSubmit_AuthHeadersAttached(t *testing.T) {
	signer := testSigner(t)
	secret := "c2VjcmV0LXNlY3JldC1zZWNyZXQ="

	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, signer.Address().Hex(), r.Header.Get("KUEST_ADDRESS"))
		assert.Equal(t, "key", r.Header.Get("KUEST_API_KEY"))
		assert.Equal(t, "pass", r.Header.Get("KUEST_PASSPHRASE"))

		ts, err := strconv.ParseInt(r.Header.Get("KUEST_TIMESTAMP"), 10, 64)
		require.NoError(t, err)
		assert.InDelta(t, time.Now().Unix(), ts, 10)

		// Recompute the signature over the received body; header and
		// recomputation must agree.
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		body := string(raw)
		want, err := signing.BuildHmacSignature(secret, ts, "POST", "/order", &body)
		require.NoError(t, err)
		assert.Equal(t, want, r.Header.Get("KUEST_SIGNATURE"))

		json.NewEncoder(w).Encode(map[string]interface{}{"orderID": "0xabc"})
	}))

	s := NewSubmitter(c, NewOrderBuilder(c, nil), nil, &fakeLedger{})
	res, err := s.SubmitLimitOrder(context.Background(), "", limitIntent(), opts001)
	require.NoError(t, err)
	assert.Equal(t, OutcomePlaced, res.Outcome)
}
