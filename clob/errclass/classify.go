// Package errclass maps opaque matching-engine error strings to a fixed
// vocabulary of user-safe messages. Classification is total and
// deterministic: exact dictionary first, then an ordered pattern table
// where the first match wins, then a generic fallback.
package errclass

import (
	"regexp"
	"strings"
)

// Kind labels the classified error family. It is stable across releases
// so callers can branch on it.
type Kind string

const (
	KindInsufficientBalance Kind = "insufficient_balance"
	KindOrderExpired        Kind = "order_expired"
	KindStaleMarket         Kind = "stale_market"
	KindPostOnly            Kind = "post_only"
	KindBookNotReady        Kind = "book_not_ready"
	KindBadSignature        Kind = "bad_signature"
	KindInvalidAmount       Kind = "invalid_amount"
	KindFeeMismatch         Kind = "fee_mismatch"
	KindExecutionFailed     Kind = "execution_failed"
	KindUnknown             Kind = "unknown"
)

// Classified is the classifier's output: a stable kind plus a message
// safe to show to a user.
type Classified struct {
	Kind    Kind
	Message string
}

// GenericMessage is the fallback shown for unclassified errors.
const GenericMessage = "Something went wrong. Please try again."

// Sink receives raw strings that matched neither stage. Unmapped errors
// must leave a trace so the dictionary can grow.
type Sink interface {
	RecordUnclassified(raw string)
}

// messages, one per kind.
var messages = map[Kind]string{
	KindInsufficientBalance: "Insufficient available balance for this order.",
	KindOrderExpired:        "This order expired. Refresh prices and submit again.",
	KindStaleMarket:         "Market data is out of date. Refresh and try again.",
	KindPostOnly:            "This order would cross the book and was rejected as post-only.",
	KindBookNotReady:        "The order book is not accepting orders yet. Try again shortly.",
	KindBadSignature:        "Order signature verification failed. Reconnect your wallet and retry.",
	KindInvalidAmount:       "Invalid order size or amount.",
	KindFeeMismatch:         "Order fees did not match the current fee schedule.",
	KindExecutionFailed:     "The order could not be executed. Please try again.",
	KindUnknown:             GenericMessage,
}

// exact holds known engine strings, keyed lowercase/trimmed. Exact hits
// take precedence over every pattern.
var exact = map[string]Kind{
	"order expired":                    KindOrderExpired,
	"not enough balance / allowance":   KindInsufficientBalance,
	"invalid signature":                KindBadSignature,
	"order is invalid. size too small": KindInvalidAmount,
	"market is not accepting orders":   KindBookNotReady,
	"post only order would cross":      KindPostOnly,
	"invalid order min size":           KindInvalidAmount,
	"fee rate mismatch":                KindFeeMismatch,
	"execution reverted":               KindExecutionFailed,
	"request timed out":                KindExecutionFailed,
	"market not found":                 KindStaleMarket,
}

// patterns is the ordered tie-break table: first match wins, so broader
// expressions belong later. Array order is the documented precedence
// rule; do not reorder when adding entries.
var patterns = []struct {
	re   *regexp.Regexp
	kind Kind
}{
	{regexp.MustCompile(`(?i)insufficient.*(balance|collateral|funds|allowance)`), KindInsufficientBalance},
	{regexp.MustCompile(`(?i)(not enough|lacks).*(balance|collateral|shares)`), KindInsufficientBalance},
	{regexp.MustCompile(`(?i)(expired|expiration.*(passed|invalid)|no longer live)`), KindOrderExpired},
	{regexp.MustCompile(`(?i)(stale|missing|unknown).*(market|condition|token|tick)`), KindStaleMarket},
	{regexp.MustCompile(`(?i)post[- ]?only`), KindPostOnly},
	{regexp.MustCompile(`(?i)(order ?book|book).*(not ready|unavailable|paused|closed)`), KindBookNotReady},
	{regexp.MustCompile(`(?i)signature.*(invalid|mismatch|failed|verification)`), KindBadSignature},
	{regexp.MustCompile(`(?i)invalid.*(signature|signer|maker)`), KindBadSignature},
	{regexp.MustCompile(`(?i)(invalid|bad).*(size|amount|price|quantity)`), KindInvalidAmount},
	{regexp.MustCompile(`(?i)(size|amount).*(too (small|large)|below minimum|exceeds)`), KindInvalidAmount},
	{regexp.MustCompile(`(?i)fee.*(mismatch|changed|invalid)`), KindFeeMismatch},
	{regexp.MustCompile(`(?i)(contract|exchange).*(mismatch|wrong)`), KindFeeMismatch},
	{regexp.MustCompile(`(?i)(execution|transaction|tx).*(failed|reverted)`), KindExecutionFailed},
	{regexp.MustCompile(`(?i)(timeout|timed out|unavailable|connection)`), KindExecutionFailed},
}

// Classifier resolves raw engine errors against the tables above. A nil
// Classifier (or nil sink) still classifies; it just drops the trace.
type Classifier struct {
	sink Sink
}

func New(sink Sink) *Classifier {
	return &Classifier{sink: sink}
}

// Classify maps a raw error string to its user-facing message. Same
// input always yields the same output regardless of call order.
func (c *Classifier) Classify(raw string) Classified {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if kind, ok := exact[normalized]; ok {
		return Classified{Kind: kind, Message: messages[kind]}
	}

	for _, p := range patterns {
		if p.re.MatchString(normalized) {
			return Classified{Kind: p.kind, Message: messages[p.kind]}
		}
	}

	if c != nil && c.sink != nil {
		c.sink.RecordUnclassified(raw)
	}
	return Classified{Kind: KindUnknown, Message: GenericMessage}
}

// Classify is the package-level entry point for callers that have no
// sink wired. Unmatched strings are still classified, just not recorded.
func Classify(raw string) Classified {
	return (*Classifier)(nil).Classify(raw)
}
