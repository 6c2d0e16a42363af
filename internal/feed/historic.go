package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// Historic accumulates price items keyed by time and replays them as events.
// Items are bulk-loaded unsorted; the sorted timeline and derived asset set
// are recomputed lazily, only when queried after a mutation. Multiple items at
// the same timestamp coalesce into a single event carrying all of them.
//
// Loading and querying must not race: Historic assumes a single writer that
// finishes adding items before replay starts. The lock only protects the
// dirty-flag recompute against concurrent readers.
type Historic struct {
	mu       sync.Mutex
	items    map[int64][]event.PriceItem
	times    map[int64]time.Time
	keys     []int64 // sorted, derived
	assets   []domain.Asset
	modified bool
}

// NewHistoric creates an empty historic feed.
func NewHistoric() *Historic {
	return &Historic{
		items: map[int64][]event.PriceItem{},
		times: map[int64]time.Time{},
	}
}

// Add records price items at a moment in time.
func (h *Historic) Add(t time.Time, items ...event.PriceItem) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := t.UnixNano()
	if _, ok := h.items[key]; !ok {
		h.times[key] = t.UTC()
	}
	h.items[key] = append(h.items[key], items...)
	h.modified = true
}

// Timeline returns the ordered timestamps of this feed.
func (h *Historic) Timeline() []time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.update()
	result := make([]time.Time, len(h.keys))
	for i, key := range h.keys {
		result[i] = h.times[key]
	}
	return result
}

// Assets returns the distinct assets observed by this feed.
func (h *Historic) Assets() []domain.Asset {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.update()
	return h.assets
}

// update recomputes the sorted keys and the asset set when items were added
// since the last query. Sorting on read keeps bulk loading O(1) per insert.
func (h *Historic) update() {
	if !h.modified {
		return
	}

	h.keys = h.keys[:0]
	for key := range h.items {
		h.keys = append(h.keys, key)
	}
	sort.Slice(h.keys, func(i, j int) bool { return h.keys[i] < h.keys[j] })

	seen := map[domain.Asset]bool{}
	h.assets = h.assets[:0]
	for _, key := range h.keys {
		for _, item := range h.items[key] {
			if asset := item.Asset(); !seen[asset] {
				seen[asset] = true
				h.assets = append(h.assets, asset)
			}
		}
	}
	h.modified = false
}

// Play replays all events in time order into the channel.
func (h *Historic) Play(ctx context.Context, ch *event.Channel) error {
	h.mu.Lock()
	h.update()
	keys := h.keys
	h.mu.Unlock()

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		evt := event.New(h.times[key], h.items[key])
		if err := ch.Put(evt); err != nil {
			return err
		}
	}
	return nil
}
