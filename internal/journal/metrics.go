package journal

import (
	"math"
	"sync/atomic"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// MetricsJournal counts run activity with atomic operations, so snapshots can
// be read from another goroutine while a run is in progress.
type MetricsJournal struct {
	eventsProcessed atomic.Uint64
	itemsProcessed  atomic.Uint64
	ordersPlaced    atomic.Uint64
	ordersClosed    atomic.Uint64

	lastEquity atomic.Uint64 // float64 bits
}

// NewMetricsJournal creates an empty metrics journal.
func NewMetricsJournal() *MetricsJournal {
	return &MetricsJournal{}
}

func (m *MetricsJournal) Track(evt *event.Event, account *domain.Account, orders []*domain.Order) {
	m.eventsProcessed.Add(1)
	m.itemsProcessed.Add(uint64(len(evt.Items)))
	m.ordersPlaced.Add(uint64(len(orders)))

	var closed uint64
	for _, o := range account.Orders {
		if o.IsClosed() {
			closed++
		}
	}
	m.ordersClosed.Store(closed)

	if equity, err := account.EquityValue(); err == nil {
		m.lastEquity.Store(math.Float64bits(equity))
	}
}

// MetricsSnapshot is a point-in-time view of all counters.
type MetricsSnapshot struct {
	EventsProcessed uint64
	ItemsProcessed  uint64
	OrdersPlaced    uint64
	OrdersClosed    uint64
	LastEquity      float64
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *MetricsJournal) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsProcessed: m.eventsProcessed.Load(),
		ItemsProcessed:  m.itemsProcessed.Load(),
		OrdersPlaced:    m.ordersPlaced.Load(),
		OrdersClosed:    m.ordersClosed.Load(),
		LastEquity:      math.Float64frombits(m.lastEquity.Load()),
		Timestamp:       time.Now(),
	}
}

// Reset clears all counters.
func (m *MetricsJournal) Reset() {
	m.eventsProcessed.Store(0)
	m.itemsProcessed.Store(0)
	m.ordersPlaced.Store(0)
	m.ordersClosed.Store(0)
	m.lastEquity.Store(0)
}
