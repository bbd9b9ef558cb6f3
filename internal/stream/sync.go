package stream

import (
	"encoding/json"

	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/internal/bookstate"
)

// BindStore attaches a listener that folds market events into the
// shared book store. The returned func detaches it. Events the codec
// does not recognize are ignored; the raw frame still reaches any
// other listeners via the client's fan-out.
func BindStore(c *Client, store *bookstate.Store) (unsubscribe func()) {
	return c.Subscribe(func(raw json.RawMessage) {
		var ev MarketEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.AssetID == "" {
			return
		}
		ApplyMarketEvent(store, &ev)
	})
}

// ApplyMarketEvent merges one market event into the store. Book events
// replace the ladder, trade events replace only last-trade fields, and
// best_bid_ask events update the market quote keyed by condition id.
func ApplyMarketEvent(store *bookstate.Store, ev *MarketEvent) {
	switch ev.EventType {
	case EventBook:
		store.MergeBook(ev.AssetID, toLevels(ev.Bids), toLevels(ev.Asks))
	case EventLastTradePrice:
		store.MergeLastTrade(ev.AssetID, ev.Price, types.Side(ev.Side))
	case EventBestBidAsk:
		key := ev.Market
		if key == "" {
			key = ev.AssetID
		}
		store.MergeQuote(key, ev.BestBid, ev.BestAsk)
	}
}

func toLevels(in []WireLevel) []bookstate.PriceLevel {
	out := make([]bookstate.PriceLevel, 0, len(in))
	for _, l := range in {
		out = append(out, bookstate.PriceLevel{Price: l.Price, Size: l.Size})
	}
	return out
}
