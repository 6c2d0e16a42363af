package feed

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLRecordAndPlayback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewRandomWalk(2, 25, start, time.Hour, 11)

	f, err := NewSQL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Record(context.Background(), source, 10); err != nil {
		t.Fatal(err)
	}

	count, err := f.NumberItems()
	if err != nil {
		t.Fatal(err)
	}
	if count != 50 {
		t.Fatalf("expected 50 recorded bars, got %d", count)
	}

	if got := len(f.Assets()); got != 2 {
		t.Fatalf("expected 2 assets, got %d", got)
	}

	timeline := f.Timeline()
	if len(timeline) != 25 {
		t.Fatalf("expected 25 timestamps, got %d", len(timeline))
	}
	if !timeline[0].Equal(start) {
		t.Errorf("unexpected first timestamp: %s", timeline[0])
	}

	events := drain(t, f)
	if len(events) != 25 {
		t.Fatalf("expected 25 events, got %d", len(events))
	}
	for i, evt := range events {
		if !evt.Time.Equal(timeline[i]) {
			t.Fatalf("event %d out of order: %s", i, evt.Time)
		}
		if len(evt.Items) != 2 {
			t.Fatalf("event %d: expected 2 items, got %d", i, len(evt.Items))
		}
	}
}

func TestSQLAppendInterleaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f, err := NewSQL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Record(context.Background(), NewRandomWalk(1, 10, start, 2*time.Hour, 1), 10); err != nil {
		t.Fatal(err)
	}
	if err := f.Record(context.Background(), NewRandomWalk(1, 10, start.Add(time.Hour), 2*time.Hour, 2), 10); err != nil {
		t.Fatal(err)
	}

	timeline := f.Timeline()
	if len(timeline) != 20 {
		t.Fatalf("expected 20 timestamps, got %d", len(timeline))
	}
	for i := 1; i < len(timeline); i++ {
		if !timeline[i].After(timeline[i-1]) {
			t.Fatalf("timeline not sorted at %d: %v", i, timeline)
		}
	}
}

func TestSQLEmpty(t *testing.T) {
	f, err := NewSQL(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	count, err := f.NumberItems()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no bars, got %d", count)
	}
	if events := drain(t, f); len(events) != 0 {
		t.Errorf("empty database produced %d events", len(events))
	}
}
