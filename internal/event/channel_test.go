package event

import (
	"testing"
	"time"

	"backtest_go/internal/domain"
)

func newTestEvent(t time.Time) *Event {
	return New(t, []PriceItem{NewTrade(domain.Stock("AAPL"), 100.0, 10.0)})
}

func TestChannelPutGet(t *testing.T) {
	ch := NewChannel(10)
	now := time.Now()

	if err := ch.Put(newTestEvent(now)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	evt, status := ch.Get(NoTimeout)
	if status != RecvOK {
		t.Fatalf("expected RecvOK, got %s", status)
	}
	if !evt.Time.Equal(now) {
		t.Errorf("unexpected event time: %s", evt.Time)
	}
}

func TestChannelBackpressure(t *testing.T) {
	// A channel with capacity 1 blocks a second Put until a Get drains the first
	ch := NewChannel(1)
	if err := ch.Put(newTestEvent(time.Now())); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	second := make(chan error, 1)
	go func() {
		second <- ch.Put(newTestEvent(time.Now()))
	}()

	select {
	case <-second:
		t.Fatal("second Put completed before a Get drained the buffer")
	case <-time.After(50 * time.Millisecond):
	}

	if _, status := ch.Get(NoTimeout); status != RecvOK {
		t.Fatalf("expected RecvOK, got %s", status)
	}
	select {
	case err := <-second:
		if err != nil {
			t.Fatalf("second Put failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second Put still blocked after drain")
	}
}

func TestChannelGetTimeout(t *testing.T) {
	ch := NewChannel(1)

	// Zero timeout returns immediately with the no-event status
	start := time.Now()
	evt, status := ch.Get(0)
	if status != RecvTimeout || evt != nil {
		t.Fatalf("expected RecvTimeout, got %s", status)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Get(0) blocked past the timeout")
	}
}

func TestChannelEndOfStream(t *testing.T) {
	ch := NewChannel(2)
	ch.Put(newTestEvent(time.Now()))
	ch.Put(newTestEvent(time.Now()))
	ch.Done()

	// Buffered events still drain after Done
	for i := 0; i < 2; i++ {
		if _, status := ch.Get(NoTimeout); status != RecvOK {
			t.Fatalf("event %d: expected RecvOK, got %s", i, status)
		}
	}

	// Afterwards the stream is permanently closed, distinguishable from a timeout
	for i := 0; i < 2; i++ {
		if _, status := ch.Get(NoTimeout); status != RecvClosed {
			t.Fatalf("expected RecvClosed, got %s", status)
		}
	}
	if !ch.Exhausted() {
		t.Error("channel must report exhausted after Done")
	}
}

func TestChannelCloseUnblocksProducer(t *testing.T) {
	ch := NewChannel(1)
	ch.Put(newTestEvent(time.Now()))

	blocked := make(chan error, 1)
	go func() {
		blocked <- ch.Put(newTestEvent(time.Now()))
	}()

	// Consumer-side close must fail the blocked Put promptly, not deadlock
	time.Sleep(20 * time.Millisecond)
	ch.Close()

	select {
	case err := <-blocked:
		if err != ErrChannelClosed {
			t.Fatalf("expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put stayed blocked after Close")
	}

	// Future Puts fail fast as well
	if err := ch.Put(newTestEvent(time.Now())); err != ErrChannelClosed {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}
