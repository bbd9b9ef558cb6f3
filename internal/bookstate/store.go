// Package bookstate is the authoritative keyed cache of order-book
// summaries and best-quote snapshots. Channel clients fold inbound
// events into it; any number of readers take immutable snapshots out.
package bookstate

import (
	"strconv"
	"sync"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// PriceLevel is one aggregated level, decimal strings as on the wire.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookSnapshot is the cached summary for one instrument (token id).
// Snapshots are immutable once published; merges build new ones.
type BookSnapshot struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`

	LastTradePrice string     `json:"last_trade_price,omitempty"`
	LastTradeSide  types.Side `json:"last_trade_side,omitempty"`

	Version int64 `json:"version"`
}

// QuoteSnapshot is the cached best bid/ask/mid for one market, each
// clamped to [0,1]; nil means unknown.
type QuoteSnapshot struct {
	Bid *float64 `json:"bid"`
	Ask *float64 `json:"ask"`
	Mid *float64 `json:"mid"`

	Version int64 `json:"version"`
}

// Store maps instrument ids to books and market ids to quotes. The key
// space is global: every subscriber addressing the same id merges into
// the same entry. Writes are serialized by the store mutex; readers get
// snapshot pointers and never observe partial merges.
type Store struct {
	mu     sync.RWMutex
	books  map[string]*BookSnapshot
	quotes map[string]*QuoteSnapshot
}

func NewStore() *Store {
	return &Store{
		books:  make(map[string]*BookSnapshot),
		quotes: make(map[string]*QuoteSnapshot),
	}
}

// Book returns the current snapshot for an instrument, or nil.
func (s *Store) Book(instrumentID string) *BookSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books[instrumentID]
}

// Quote returns the current quote snapshot for a market, or nil.
func (s *Store) Quote(marketID string) *QuoteSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[marketID]
}

// Instruments lists the instrument ids with cached books.
func (s *Store) Instruments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	return ids
}

// MergeBook replaces bids/asks wholesale for the instrument and keeps
// the last-trade fields untouched.
func (s *Store) MergeBook(instrumentID string, bids, asks []PriceLevel) *BookSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.books[instrumentID]
	next := mergeBook(prev, bids, asks)
	s.books[instrumentID] = next
	return next
}

// MergeLastTrade replaces only the last-trade fields and keeps bids and
// asks untouched. A side other than BUY/SELL is dropped rather than
// stored invalid.
func (s *Store) MergeLastTrade(instrumentID, price string, side types.Side) *BookSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.books[instrumentID]
	next := mergeLastTrade(prev, price, side)
	s.books[instrumentID] = next
	return next
}

// MergeQuote computes the clamped bid/ask/mid triple and stores it. If
// the computed triple is field-for-field identical to the cached one,
// the prior snapshot is returned unchanged so downstream consumers can
// skip recomputation on pointer equality.
func (s *Store) MergeQuote(marketID string, bestBid, bestAsk string) *QuoteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.quotes[marketID]
	next := mergeQuote(prev, bestBid, bestAsk)
	if next == prev {
		return prev
	}
	s.quotes[marketID] = next
	return next
}

// mergeBook, mergeLastTrade and mergeQuote are pure: they never mutate
// the previous snapshot.

func mergeBook(prev *BookSnapshot, bids, asks []PriceLevel) *BookSnapshot {
	next := &BookSnapshot{
		Bids: append([]PriceLevel(nil), bids...),
		Asks: append([]PriceLevel(nil), asks...),
	}
	if prev != nil {
		next.LastTradePrice = prev.LastTradePrice
		next.LastTradeSide = prev.LastTradeSide
		next.Version = prev.Version + 1
	}
	return next
}

func mergeLastTrade(prev *BookSnapshot, price string, side types.Side) *BookSnapshot {
	next := &BookSnapshot{LastTradePrice: price}
	if side.Valid() {
		next.LastTradeSide = side
	}
	if prev != nil {
		next.Bids = prev.Bids
		next.Asks = prev.Asks
		next.Version = prev.Version + 1
	}
	return next
}

func mergeQuote(prev *QuoteSnapshot, bestBid, bestAsk string) *QuoteSnapshot {
	bid := normalizePrice(bestBid)
	ask := normalizePrice(bestAsk)
	mid := midpoint(bid, ask)

	if prev != nil && floatEqual(prev.Bid, bid) && floatEqual(prev.Ask, ask) && floatEqual(prev.Mid, mid) {
		return prev
	}

	next := &QuoteSnapshot{Bid: bid, Ask: ask, Mid: mid}
	if prev != nil {
		next.Version = prev.Version + 1
	}
	return next
}

// normalizePrice parses and clamps to [0,1]; anything non-numeric is
// unknown.
func normalizePrice(raw string) *float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	if v != v { // NaN
		return nil
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

// midpoint is the average when both sides are known, the known side
// when only one is, nil otherwise.
func midpoint(bid, ask *float64) *float64 {
	switch {
	case bid != nil && ask != nil:
		m := (*bid + *ask) / 2
		return &m
	case bid != nil:
		m := *bid
		return &m
	case ask != nil:
		m := *ask
		return &m
	default:
		return nil
	}
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
