package feed

import (
	"testing"
	"time"

	"backtest_go/internal/event"
)

func TestRandomWalkShape(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewRandomWalk(3, 50, start, time.Hour, 42)

	if len(f.Assets()) != 3 {
		t.Fatalf("expected 3 assets, got %v", f.Assets())
	}
	timeline := f.Timeline()
	if len(timeline) != 50 {
		t.Fatalf("expected 50 timestamps, got %d", len(timeline))
	}
	if !timeline[0].Equal(start) || !timeline[49].Equal(start.Add(49*time.Hour)) {
		t.Errorf("unexpected timeline bounds: %s .. %s", timeline[0], timeline[49])
	}

	events := drain(t, f)
	if len(events) != 50 {
		t.Fatalf("expected 50 events, got %d", len(events))
	}
	for _, evt := range events {
		if len(evt.Items) != 3 {
			t.Fatalf("expected 3 items per event, got %d", len(evt.Items))
		}
		for _, item := range evt.Items {
			bar := item.(*event.Bar)
			ohlcv := bar.OHLCV()
			if ohlcv[1] < ohlcv[0] || ohlcv[1] < ohlcv[3] {
				t.Fatalf("high below open/close: %v", ohlcv)
			}
			if ohlcv[2] > ohlcv[0] || ohlcv[2] > ohlcv[3] {
				t.Fatalf("low above open/close: %v", ohlcv)
			}
		}
	}
}

func TestRandomWalkDeterministic(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := drain(t, NewRandomWalk(2, 20, start, time.Hour, 7))
	b := drain(t, NewRandomWalk(2, 20, start, time.Hour, 7))

	if len(a) != len(b) {
		t.Fatalf("event counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		for j := range a[i].Items {
			pa := a[i].Items[j].Price(event.PriceClose)
			pb := b[i].Items[j].Price(event.PriceClose)
			if pa != pb {
				t.Fatalf("event %d item %d differs: %v vs %v", i, j, pa, pb)
			}
		}
	}
}
