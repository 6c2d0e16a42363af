package engine

import (
	"context"
	"testing"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/feed"
	"backtest_go/internal/journal"
	"backtest_go/internal/strategy"

	"github.com/shopspring/decimal"
)

// buyOnce buys a fixed quantity on the first event and then stays flat.
type buyOnce struct {
	asset domain.Asset
	qty   int64
	done  bool
}

func (s *buyOnce) CreateOrders(evt *event.Event, account *domain.Account) []*domain.Order {
	if s.done || evt.IsEmpty() {
		return nil
	}
	s.done = true
	return []*domain.Order{domain.NewOrder(s.asset, decimal.NewFromInt(s.qty))}
}

func testFeed(prices ...float64) *feed.Historic {
	h := feed.NewHistoric()
	for i, price := range prices {
		h.Add(t0.Add(time.Duration(i)*time.Hour), event.NewTrade(aapl, price, 1000))
	}
	return h
}

func TestRunBuyAndHold(t *testing.T) {
	f := testFeed(100, 110, 120)
	broker := NewSimBroker(usd(10_000))

	account, err := Run(context.Background(), f, &buyOnce{asset: aapl, qty: 10}, broker, nil, 10, event.NoTimeout)
	if err != nil {
		t.Fatal(err)
	}

	// Placed on the first event, filled on the second at 110.
	pos := account.Positions[aapl]
	if !pos.Size.Equal(decimal.NewFromInt(10)) || pos.AvgPrice != 110 {
		t.Fatalf("expected 10@110, got %s@%v", pos.Size, pos.AvgPrice)
	}
	if pos.MktPrice != 120 {
		t.Errorf("expected market price 120, got %v", pos.MktPrice)
	}
	if got := account.Cash[domain.USD]; got != 8_900 {
		t.Errorf("expected cash 8900, got %v", got)
	}
	if account.BuyingPower.Value != 10_100 {
		t.Errorf("expected buying power 10100, got %v", account.BuyingPower)
	}
}

func TestRunNoStrategy(t *testing.T) {
	f := testFeed(100, 110)
	broker := NewSimBroker(usd(10_000))

	account, err := Run(context.Background(), f, strategy.None{}, broker, nil, 10, event.NoTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if len(account.Orders) != 0 || len(account.Positions) != 0 {
		t.Error("a run without trades must leave the account flat")
	}
	if got := account.Cash[domain.USD]; got != 10_000 {
		t.Errorf("cash must be untouched, got %v", got)
	}
}

func TestRunDefaultBroker(t *testing.T) {
	f := testFeed(100)
	account, err := Run(context.Background(), f, strategy.None{}, nil, nil, 10, event.NoTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if account.BaseCurrency() != domain.USD {
		t.Errorf("default broker must report in USD, got %s", account.BaseCurrency())
	}
	if got := account.Cash[domain.USD]; got != 1_000_000 {
		t.Errorf("unexpected default deposit: %v", got)
	}
}

func TestRunTracksJournal(t *testing.T) {
	f := testFeed(100, 110, 120)
	metrics := journal.NewMetricsJournal()

	_, err := Run(context.Background(), f, &buyOnce{asset: aapl, qty: 5}, NewSimBroker(usd(10_000)), metrics, 10, event.NoTimeout)
	if err != nil {
		t.Fatal(err)
	}

	snap := metrics.Snapshot()
	if snap.EventsProcessed != 3 {
		t.Errorf("expected 3 events tracked, got %d", snap.EventsProcessed)
	}
	if snap.OrdersPlaced != 1 {
		t.Errorf("expected 1 order placed, got %d", snap.OrdersPlaced)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := testFeed(100, 110, 120)
	account, err := Run(ctx, f, strategy.None{}, NewSimBroker(usd(10_000)), nil, 1, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if account == nil {
		t.Fatal("a cancelled run must still return the final account")
	}
}
