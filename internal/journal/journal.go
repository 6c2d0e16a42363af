package journal

import (
	"log/slog"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// Journal tracks the progress of a run. It is invoked once per processed
// event with the event, the account snapshot and the orders the strategy just
// placed. Journals are purely observational and must not mutate the account.
type Journal interface {
	Track(evt *event.Event, account *domain.Account, orders []*domain.Order)

	// Reset clears the journal state between independent runs.
	Reset()
}

// SlogJournal logs the account equity every interval events.
type SlogJournal struct {
	interval int
	n        int
}

// NewSlogJournal creates a journal logging every interval events.
func NewSlogJournal(interval int) *SlogJournal {
	if interval <= 0 {
		interval = 1
	}
	return &SlogJournal{interval: interval}
}

func (j *SlogJournal) Track(evt *event.Event, account *domain.Account, orders []*domain.Order) {
	j.n++
	if j.n%j.interval != 0 {
		return
	}

	equity, err := account.EquityValue()
	if err != nil {
		slog.Warn("equity not computable", slog.Any("error", err))
		return
	}
	slog.Info("progress",
		slog.Time("time", evt.Time),
		slog.Int("events", j.n),
		slog.Float64("equity", equity),
		slog.Int("positions", len(account.Positions)),
		slog.Int("orders", len(account.Orders)))
}

func (j *SlogJournal) Reset() {
	j.n = 0
}

// Multi fans every call out to a list of journals.
type Multi struct {
	journals []Journal
}

// NewMulti combines several journals into one.
func NewMulti(journals ...Journal) *Multi {
	return &Multi{journals: journals}
}

func (m *Multi) Track(evt *event.Event, account *domain.Account, orders []*domain.Order) {
	for _, j := range m.journals {
		j.Track(evt, account, orders)
	}
}

func (m *Multi) Reset() {
	for _, j := range m.journals {
		j.Reset()
	}
}
