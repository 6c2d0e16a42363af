package domain

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccountInit(t *testing.T) {
	acc := NewAccount(USD)
	acc.Cash.Deposit(NewAmount(USD, 1_000.0))

	if acc.BuyingPower.Value != 0.0 || acc.BuyingPower.Currency != USD {
		t.Errorf("unexpected buying power: %v", acc.BuyingPower)
	}
	if acc.BaseCurrency() != USD {
		t.Errorf("expected base currency USD, got %s", acc.BaseCurrency())
	}

	pnl, err := acc.Convert(acc.UnrealizedPNL())
	if err != nil || pnl != 0.0 {
		t.Errorf("expected zero pnl, got %f (%v)", pnl, err)
	}
	equity, err := acc.EquityValue()
	if err != nil {
		t.Fatalf("equity failed: %v", err)
	}
	if equity != 1_000.0 {
		t.Errorf("expected equity 1000, got %f", equity)
	}
}

func TestAccountPositions(t *testing.T) {
	acc := NewAccount(USD)
	acc.Cash.Deposit(NewAmount(USD, 1_000.0))

	for i := 0; i < 5; i++ {
		asset := Stock(fmt.Sprintf("AA%d", i))
		acc.Positions[asset] = Position{Size: decimal.NewFromInt(10), AvgPrice: 10.0, MktPrice: 11.0}
	}

	mkt, err := acc.Convert(acc.MktValue())
	if err != nil {
		t.Fatalf("mkt value failed: %v", err)
	}
	if math.Abs(mkt-5*10*11.0) > 1e-9 {
		t.Errorf("expected mkt value 550, got %f", mkt)
	}

	equity, _ := acc.EquityValue()
	if math.Abs(equity-(1_000.0+550.0)) > 1e-9 {
		t.Errorf("expected equity 1550, got %f", equity)
	}

	pnl, _ := acc.Convert(acc.UnrealizedPNL())
	if math.Abs(pnl-50.0) > 1e-9 {
		t.Errorf("expected pnl 50, got %f", pnl)
	}
}

func TestAccountPositionSize(t *testing.T) {
	acc := NewAccount(USD)
	aapl := Stock("AAPL")

	if !acc.PositionSize(aapl).IsZero() {
		t.Error("expected zero size for missing position")
	}

	acc.Positions[aapl] = Position{Size: decimal.NewFromInt(-3), AvgPrice: 10.0, MktPrice: 10.0}
	if !acc.PositionSize(aapl).Equal(decimal.NewFromInt(-3)) {
		t.Errorf("expected -3, got %s", acc.PositionSize(aapl))
	}
}

func TestAccountLongShortPositions(t *testing.T) {
	acc := NewAccount(USD)
	long := Stock("LONG")
	short := Stock("SHRT")
	acc.Positions[long] = Position{Size: decimal.NewFromInt(5)}
	acc.Positions[short] = Position{Size: decimal.NewFromInt(-5)}

	if got := acc.LongPositions(); len(got) != 1 || !got[long].IsLong() {
		t.Errorf("unexpected long positions: %v", got)
	}
	if got := acc.ShortPositions(); len(got) != 1 || !got[short].IsShort() {
		t.Errorf("unexpected short positions: %v", got)
	}
}

func TestRequiredBuyingPower(t *testing.T) {
	aapl := Stock("AAPL")
	acc := NewAccount(USD)
	acc.Positions[aapl] = Position{Size: decimal.NewFromInt(100), AvgPrice: 10.0, MktPrice: 10.0}

	tests := []struct {
		name  string
		size  int64
		limit float64
		price float64
		want  float64
	}{
		{"full close needs nothing", -100, 10.0, 10.0, 0.0},
		{"partial close needs nothing", -50, 10.0, 10.0, 0.0},
		{"increase needs full notional at the limit", 50, 10.0, 12.0, 50 * 10.0},
		{"market increase needs full notional at the price", 50, 0, 12.0, 50 * 12.0},
		{"market reduction needs nothing", -50, 0, 12.0, 0.0},
		{"reversal to a smaller magnitude needs nothing", -150, 10.0, 10.0, 0.0},
		{"reversal to a larger magnitude needs the full notional", -250, 10.0, 10.0, 250 * 10.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := NewOrder(aapl, decimal.NewFromInt(tc.size))
			order.Limit = tc.limit
			got := acc.RequiredBuyingPower(order, tc.price)
			if got.Currency != USD {
				t.Errorf("expected USD, got %s", got.Currency)
			}
			if math.Abs(got.Value-tc.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tc.want, got.Value)
			}
		})
	}
}

func TestAccountLastUpdateDrivesConversion(t *testing.T) {
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	acc := NewAccount(USD)
	acc.LastUpdate = at
	acc.Cash.Deposit(NewAmount(USD, 10.0))

	// Identity conversions never need a provider, whatever the timestamp
	SetRates(nil)
	if _, err := acc.EquityValue(); err != nil {
		t.Fatalf("equity failed: %v", err)
	}
}
