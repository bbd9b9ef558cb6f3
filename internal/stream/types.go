package stream

import (
	"encoding/json"
)

// Status is the channel client's connection state, observable by
// dependents. Live is only entered after the first successfully parsed
// inbound message.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusLive       Status = "live"
	StatusOffline    Status = "offline"
)

// Event type tags on the market channel.
const (
	EventBook           = "book"
	EventLastTradePrice = "last_trade_price"
	EventBestBidAsk     = "best_bid_ask"
)

// MarketEvent is one inbound market-channel event. The three event
// types share the envelope and differ in which fields are populated.
type MarketEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`

	// book
	Bids []WireLevel `json:"bids,omitempty"`
	Asks []WireLevel `json:"asks,omitempty"`

	// last_trade_price
	Price string `json:"price,omitempty"`
	Side  string `json:"side,omitempty"`

	// best_bid_ask
	BestBid string `json:"best_bid,omitempty"`
	BestAsk string `json:"best_ask,omitempty"`
}

// WireLevel is a price level as transmitted: decimal strings.
type WireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// CommentEvent is one inbound comments-channel event.
type CommentEvent struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	CommentCreated = "comment_created"
	CommentRemoved = "comment_removed"
)

// Codec builds the channel-specific subscription handshake. One codec
// instance describes one topic set; an empty topic set means there is
// nothing to connect for.
type Codec interface {
	Empty() bool
	SubscribeMessage() interface{}
	UnsubscribeMessage() interface{}
}

// MarketCodec subscribes to instrument (token) ids on the market
// channel.
type MarketCodec struct {
	AssetIDs []string
}

func (c MarketCodec) Empty() bool { return len(c.AssetIDs) == 0 }

func (c MarketCodec) SubscribeMessage() interface{} {
	return map[string]interface{}{
		"type":                   "market",
		"assets_ids":             c.AssetIDs,
		"markets":                []string{},
		"custom_feature_enabled": true,
	}
}

func (c MarketCodec) UnsubscribeMessage() interface{} {
	return map[string]interface{}{
		"type":       "unsubscribe",
		"assets_ids": c.AssetIDs,
	}
}

// CommentsCodec subscribes to the comments feed of one event.
type CommentsCodec struct {
	EventSlug string
}

type commentsSubscription struct {
	Topic   string            `json:"topic"`
	Type    string            `json:"type"`
	Filters map[string]string `json:"filters"`
}

type commentsRequest struct {
	Action        string                 `json:"action"`
	Subscriptions []commentsSubscription `json:"subscriptions"`
}

func (c CommentsCodec) Empty() bool { return c.EventSlug == "" }

func (c CommentsCodec) subscription() commentsSubscription {
	return commentsSubscription{
		Topic:   "comments",
		Type:    "*",
		Filters: map[string]string{"event_slug": c.EventSlug},
	}
}

func (c CommentsCodec) SubscribeMessage() interface{} {
	return commentsRequest{Action: "subscribe", Subscriptions: []commentsSubscription{c.subscription()}}
}

func (c CommentsCodec) UnsubscribeMessage() interface{} {
	return commentsRequest{Action: "unsubscribe", Subscriptions: []commentsSubscription{c.subscription()}}
}

// Visibility gates connection attempts on whether the hosting surface
// is in the foreground. Backgrounded surfaces neither connect nor
// reconnect; returning to the foreground triggers an immediate attempt.
type Visibility interface {
	Visible() bool
	// Changes delivers visibility transitions; a nil channel disables
	// watching.
	Changes() <-chan bool
}

// AlwaysVisible is the default for headless processes.
type AlwaysVisible struct{}

func (AlwaysVisible) Visible() bool        { return true }
func (AlwaysVisible) Changes() <-chan bool { return nil }
