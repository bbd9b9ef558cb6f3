package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kuestmarket/kuest-go/clob/errclass"
	"github.com/kuestmarket/kuest-go/clob/signing"
	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/pkg/logger"
)

// Outcome discriminates the result of a submission attempt.
type Outcome string

const (
	// OutcomePlaced means the engine accepted the order.
	OutcomePlaced Outcome = "placed"

	// OutcomeCancelled means the user rejected the signing prompt.
	// Never presented as an error.
	OutcomeCancelled Outcome = "cancelled"

	// OutcomeSigningFailed means the wallet signer failed for any other
	// reason.
	OutcomeSigningFailed Outcome = "signing_failed"

	// OutcomeRejected means the engine explicitly refused the order.
	OutcomeRejected Outcome = "rejected"

	// OutcomeTradingDisabled means trading credentials are missing and
	// onboarding is required first.
	OutcomeTradingDisabled Outcome = "trading_disabled"

	// OutcomeFailed covers transport failures, timeouts, and responses
	// the client could not interpret.
	OutcomeFailed Outcome = "failed"
)

// SubmitResult is the discriminated outcome of one submission. OrderID
// is set only for OutcomePlaced; Message carries the user-facing text
// for every other outcome except OutcomeCancelled.
type SubmitResult struct {
	Outcome Outcome
	OrderID string
	Kind    errclass.Kind
	Message string
}

// ErrSubmissionInFlight reports a second submission for an action key
// whose prior submission has not finished.
var ErrSubmissionInFlight = errors.New("submission already in flight for this action")

// Submitter runs the full order pipeline: balance pre-check, build and
// sign, maker verification, authenticated submission, and rejection
// classification.
type Submitter struct {
	client     *Client
	builder    *OrderBuilder
	classifier *errclass.Classifier
	ledger     Ledger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSubmitter assembles the pipeline. A nil ledger defaults to the
// engine's own balance read; a nil classifier still classifies but
// records nothing.
func NewSubmitter(client *Client, builder *OrderBuilder, classifier *errclass.Classifier, ledger Ledger) *Submitter {
	if ledger == nil {
		ledger = client
	}
	return &Submitter{
		client:     client,
		builder:    builder,
		classifier: classifier,
		ledger:     ledger,
		inflight:   make(map[string]struct{}),
	}
}

// SubmitMarketOrder runs a market intent through the pipeline. The
// action key serializes submissions per user action: a second call with
// the same key while one is in flight returns ErrSubmissionInFlight.
func (s *Submitter) SubmitMarketOrder(ctx context.Context, actionKey string, intent *types.MarketOrderIntent, market *types.Market, opts *types.CreateOrderOptions) (SubmitResult, error) {
	if actionKey == "" {
		actionKey = intent.TokenID + ":" + string(intent.Side)
	}
	release, err := s.acquire(actionKey)
	if err != nil {
		return SubmitResult{}, err
	}
	defer release()

	log := logger.WithFields(map[string]interface{}{
		"submission": uuid.NewString(),
		"token":      intent.TokenID,
		"side":       intent.Side,
	})

	if err := s.client.canAuth(); err != nil {
		return SubmitResult{Outcome: OutcomeTradingDisabled}, nil
	}

	if intent.Side == types.SideSell {
		if res, ok := s.checkSellBalance(ctx, intent.TokenID, intent.Amount, log); !ok {
			return res, nil
		}
	}

	order, err := s.builder.BuildMarketOrder(intent, market, opts)
	if res, done := s.resolveBuildError(err, log); done {
		return res, nil
	}

	orderType := intent.OrderType
	if orderType != types.OrderTypeFOK && orderType != types.OrderTypeFAK {
		orderType = types.OrderTypeFOK
	}

	return s.post(ctx, order, orderType, log)
}

// SubmitLimitOrder runs a limit intent through the pipeline.
func (s *Submitter) SubmitLimitOrder(ctx context.Context, actionKey string, intent *types.LimitOrderIntent, opts *types.CreateOrderOptions) (SubmitResult, error) {
	if actionKey == "" {
		actionKey = intent.TokenID + ":" + string(intent.Side)
	}
	release, err := s.acquire(actionKey)
	if err != nil {
		return SubmitResult{}, err
	}
	defer release()

	log := logger.WithFields(map[string]interface{}{
		"submission": uuid.NewString(),
		"token":      intent.TokenID,
		"side":       intent.Side,
	})

	if err := s.client.canAuth(); err != nil {
		return SubmitResult{Outcome: OutcomeTradingDisabled}, nil
	}

	if intent.Side == types.SideSell {
		if res, ok := s.checkSellBalance(ctx, intent.TokenID, intent.Size, log); !ok {
			return res, nil
		}
	}

	order, err := s.builder.BuildLimitOrder(intent, opts)
	if res, done := s.resolveBuildError(err, log); done {
		return res, nil
	}

	orderType := types.OrderTypeGTC
	if intent.Expiration != nil && *intent.Expiration > 0 {
		orderType = types.OrderTypeGTD
	}

	return s.post(ctx, order, orderType, log)
}

// acquire registers an in-flight submission for key.
func (s *Submitter) acquire(key string) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, ErrSubmissionInFlight
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

// checkSellBalance short-circuits a SELL whose share quantity exceeds
// the user's holdings, without touching the matching engine.
func (s *Submitter) checkSellBalance(ctx context.Context, tokenID string, quantity float64, log *logrus.Entry) (SubmitResult, bool) {
	held, err := s.ledger.Shares(ctx, tokenID)
	if err != nil {
		log.Warnf("balance read failed: %v", err)
		return SubmitResult{Outcome: OutcomeFailed, Message: errclass.GenericMessage}, false
	}

	if held.LessThan(decimal.NewFromFloat(quantity)) {
		log.Infof("sell rejected before submission: held %s, requested %v", held, quantity)
		return SubmitResult{
			Outcome: OutcomeRejected,
			Kind:    errclass.KindInsufficientBalance,
			Message: s.classify("not enough balance / allowance").Message,
		}, false
	}
	return SubmitResult{}, true
}

// resolveBuildError maps builder failures to their outcomes. done is
// false when the build succeeded.
func (s *Submitter) resolveBuildError(err error, log *logrus.Entry) (SubmitResult, bool) {
	switch {
	case err == nil:
		return SubmitResult{}, false
	case errors.Is(err, signing.ErrSigningCancelled):
		log.Infof("signing cancelled by user")
		return SubmitResult{Outcome: OutcomeCancelled}, true
	case errors.Is(err, ErrTradingDisabled):
		return SubmitResult{Outcome: OutcomeTradingDisabled}, true
	default:
		log.Warnf("order build failed: %v", err)
		return SubmitResult{Outcome: OutcomeSigningFailed, Message: errclass.GenericMessage}, true
	}
}

// post performs the authenticated submission and interprets the reply.
func (s *Submitter) post(ctx context.Context, order *types.SignedOrder, orderType types.OrderType, log *logrus.Entry) (SubmitResult, error) {
	// The signed maker must be the account the engine knows. A mismatch
	// here means a wiring bug, not a user mistake.
	if order.Maker != s.client.MakerAddress() {
		return SubmitResult{}, errors.Errorf("order maker %s does not match account %s", order.Maker, s.client.MakerAddress())
	}

	resp, err := s.client.PostOrder(ctx, order, orderType)
	if err != nil {
		log.Warnf("order submission failed: %v", err)
		return SubmitResult{Outcome: OutcomeFailed, Message: errclass.GenericMessage}, nil
	}

	if raw := resp.RawError(); raw != "" {
		classified := s.classify(raw)
		log.Infof("order rejected: kind=%s raw=%q", classified.Kind, raw)
		return SubmitResult{Outcome: OutcomeRejected, Kind: classified.Kind, Message: classified.Message}, nil
	}

	orderID := resp.ResolvedOrderID()
	if orderID == "" {
		// A 200 without an order id is a failure, never a silent
		// success.
		log.Warnf("order response carried no order id")
		return SubmitResult{Outcome: OutcomeFailed, Message: errclass.GenericMessage}, nil
	}

	log.Infof("order placed: %s", orderID)
	return SubmitResult{Outcome: OutcomePlaced, OrderID: orderID}, nil
}

func (s *Submitter) classify(raw string) errclass.Classified {
	if s.classifier != nil {
		return s.classifier.Classify(raw)
	}
	return errclass.Classify(raw)
}
