package strategy

import (
	"backtest_go/internal/domain"
	"backtest_go/internal/event"

	"github.com/shopspring/decimal"
)

// SMACross implements a simple SMA crossover strategy for one asset.
// It is stateful and deterministic. A golden cross (short SMA moving above
// the long SMA) buys a fixed quantity; a dead cross sells the open position,
// or opens a short of the fixed quantity if the position is flat.
// Uses a ring buffer so the hotpath stays allocation-free.
type SMACross struct {
	asset       domain.Asset
	shortPeriod int
	longPeriod  int
	quantity    decimal.Decimal

	// State (Ring Buffer)
	prices []float64
	head   int     // Current write position
	count  int     // Number of elements filled
	sum    float64 // Running sum for the longest period

	prevShortSMA float64
	prevLongSMA  float64
}

// NewSMACross creates a new instance trading the given quantity per signal.
func NewSMACross(asset domain.Asset, shortPeriod, longPeriod int, quantity decimal.Decimal) *SMACross {
	if shortPeriod >= longPeriod {
		panic("SMACross: shortPeriod must be less than longPeriod")
	}
	return &SMACross{
		asset:       asset,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		quantity:    quantity,
		prices:      make([]float64, longPeriod), // Fixed size allocation
	}
}

// CreateOrders processes the event and generates orders on SMA crosses.
func (s *SMACross) CreateOrders(evt *event.Event, account *domain.Account) []*domain.Order {
	price, ok := evt.Price(s.asset, event.PriceDefault)
	if !ok {
		return nil
	}

	// Update price history. When full, subtract the oldest value from the
	// running sum before overwriting it.
	if s.count == s.longPeriod {
		s.sum -= s.prices[s.head] // head points to the oldest value when full
	}
	s.prices[s.head] = price
	s.sum += price
	s.head = (s.head + 1) % s.longPeriod
	if s.count < s.longPeriod {
		s.count++
	}

	if s.count < s.longPeriod {
		return nil
	}

	currLongSMA := s.sum / float64(s.longPeriod)
	currShortSMA := s.calculateShortSMA()

	var orders []*domain.Order

	if s.prevShortSMA != 0 && s.prevLongSMA != 0 {
		// Golden Cross: short SMA moves above long SMA
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			orders = append(orders, domain.NewOrder(s.asset, s.quantity))
		}

		// Dead Cross: short SMA moves below long SMA
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA {
			size := account.PositionSize(s.asset)
			if size.IsZero() {
				size = s.quantity
			}
			orders = append(orders, domain.NewOrder(s.asset, size.Neg()))
		}
	}

	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return orders
}

// calculateShortSMA walks the ring buffer backwards from the latest value.
func (s *SMACross) calculateShortSMA() float64 {
	var sum float64
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum += s.prices[idx]
	}
	return sum / float64(s.shortPeriod)
}
