package feed

import (
	"context"
	"testing"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

func drain(t *testing.T, f Feed) []*event.Event {
	t.Helper()
	ch := PlayBackground(context.Background(), f, 10)

	var events []*event.Event
	for {
		evt, status := ch.Get(time.Second)
		if status != event.RecvOK {
			return events
		}
		events = append(events, evt)
	}
}

func TestHistoricCoalescesSameTimestamp(t *testing.T) {
	aapl := domain.Stock("AAPL")
	msft := domain.Stock("MSFT")
	at := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)

	h := NewHistoric()
	h.Add(at, event.NewTrade(aapl, 100.0, 1.0))
	h.Add(at, event.NewTrade(msft, 200.0, 1.0))

	events := drain(t, h)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(events[0].Items) != 2 {
		t.Fatalf("expected 2 items in the event, got %d", len(events[0].Items))
	}
	if !events[0].Time.Equal(at) {
		t.Errorf("unexpected event time: %s", events[0].Time)
	}

	assets := h.Assets()
	if len(assets) != 2 {
		t.Errorf("expected 2 assets, got %v", assets)
	}
}

func TestHistoricSortsLazily(t *testing.T) {
	aapl := domain.Stock("AAPL")
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	t3 := t2.Add(24 * time.Hour)

	// Out-of-order bulk load
	h := NewHistoric()
	h.Add(t3, event.NewTrade(aapl, 103.0, 1.0))
	h.Add(t1, event.NewTrade(aapl, 101.0, 1.0))
	h.Add(t2, event.NewTrade(aapl, 102.0, 1.0))

	timeline := h.Timeline()
	if len(timeline) != 3 {
		t.Fatalf("expected 3 timestamps, got %d", len(timeline))
	}
	for i := 1; i < len(timeline); i++ {
		if !timeline[i].After(timeline[i-1]) {
			t.Fatalf("timeline not sorted at %d: %v", i, timeline)
		}
	}

	// Adding after a query must invalidate the derived state
	t0 := t1.Add(-24 * time.Hour)
	h.Add(t0, event.NewTrade(aapl, 100.0, 1.0))
	timeline = h.Timeline()
	if len(timeline) != 4 || !timeline[0].Equal(t0) {
		t.Fatalf("expected refreshed timeline starting at %s, got %v", t0, timeline)
	}

	// Replay must follow the sorted timeline
	events := drain(t, h)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i, evt := range events {
		if !evt.Time.Equal(timeline[i]) {
			t.Errorf("event %d out of order: %s", i, evt.Time)
		}
	}
}

func TestHistoricEmpty(t *testing.T) {
	h := NewHistoric()
	if len(h.Timeline()) != 0 || len(h.Assets()) != 0 {
		t.Error("empty feed must have no timeline and no assets")
	}
	if events := drain(t, h); len(events) != 0 {
		t.Errorf("empty feed produced %d events", len(events))
	}
}
