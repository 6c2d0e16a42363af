package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Broker accepts orders and keeps the account in sync with market events.
type Broker interface {
	// PlaceOrders queues orders. They do not affect the account until the
	// next Sync call.
	PlaceOrders(orders ...*domain.Order)

	// Sync processes queued orders against the latest prices and returns the
	// updated account. A nil event performs bookkeeping only.
	Sync(evt *event.Event) (*domain.Account, error)
}

// SimBroker simulates order execution against the prices observed in events.
// It owns its account exclusively: the account is mutated only inside Sync,
// and all calls are serialized by a single lock.
//
// Fills are market-style at the observed price. A nonzero limit gates the
// fill (a buy fills when the price is at or below the limit, a sell at or
// above) but execution still happens at the observed price. Risk-increasing
// fills are skipped while the account lacks the required buying power.
type SimBroker struct {
	mu        sync.Mutex
	account   *domain.Account
	pending   []*domain.Order
	prices    map[domain.Asset]float64
	deposit   domain.Amount
	priceType string
}

// NewSimBroker creates a broker seeded with the given deposit.
func NewSimBroker(deposit domain.Amount) *SimBroker {
	b := &SimBroker{deposit: deposit, priceType: event.PriceDefault}
	b.reset()
	return b
}

func (b *SimBroker) reset() {
	account := domain.NewAccount(b.deposit.Currency)
	account.Cash.Deposit(b.deposit)
	account.BuyingPower = b.deposit
	b.account = account
	b.pending = nil
	b.prices = map[domain.Asset]float64{}
}

// Reset discards all positions, orders and pending orders, restoring the
// starting cash and buying-power baseline. Used between independent runs.
func (b *SimBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// PlaceOrders appends orders to the pending queue. Orders carrying an id
// (cancellations and modifications) must reference an order previously
// returned in the account's order list; an unknown id is an unrecoverable
// precondition violation and panics before any state changes.
func (b *SimBroker) PlaceOrders(orders ...*domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, order := range orders {
		if order.ID != "" && b.findOrder(order.ID) == nil {
			panic(fmt.Sprintf("ORDER_ID_UNKNOWN: %s not found in account orders", order.ID))
		}
	}
	b.pending = append(b.pending, orders...)
}

func (b *SimBroker) findOrder(id string) *domain.Order {
	for _, order := range b.account.Orders {
		if order.ID == id {
			return order
		}
	}
	return nil
}

// Sync advances the account: it applies the event's time and prices, moves
// pending orders into the account, attempts fills, and recomputes buying
// power. Each fill is applied atomically to cash, position and order state.
// A nil event performs the same bookkeeping with the prices already known,
// which establishes the starting baseline before any event has arrived.
func (b *SimBroker) Sync(evt *event.Event) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := b.account
	if evt != nil {
		if evt.Time.Before(account.LastUpdate) {
			panic(fmt.Sprintf("EVENT_TIME_REGRESSION: %s before %s", evt.Time, account.LastUpdate))
		}
		account.LastUpdate = evt.Time

		for asset, item := range evt.PriceItems() {
			price := item.Price(b.priceType)
			b.prices[asset] = price
			if pos, ok := account.Positions[asset]; ok {
				pos.MktPrice = price
				account.Positions[asset] = pos
			}
		}
	}

	b.processPending()

	for _, order := range account.Orders {
		if !order.IsOpen() {
			continue
		}
		if order.IsExpired(account.LastUpdate) {
			order.Status = domain.OrderStatusClosed
			continue
		}

		price, ok := b.prices[order.Asset]
		if !ok {
			continue
		}
		if !limitSatisfied(order, price) {
			continue
		}

		filled, err := b.fill(order, price)
		if err != nil {
			return nil, err
		}
		if filled {
			order.Fill = order.Size
			order.Status = domain.OrderStatusClosed
		}
	}

	equity, err := account.EquityValue()
	if err != nil {
		return nil, err
	}
	account.BuyingPower = domain.NewAmount(account.BaseCurrency(), equity)

	return account, nil
}

// processPending moves queued orders into the account. New orders get an id
// assigned; cancellations and modifications are resolved against their target.
func (b *SimBroker) processPending() {
	for _, order := range b.pending {
		switch {
		case order.IsCancellation():
			if target := b.findOrder(order.ID); target.IsOpen() {
				target.Status = domain.OrderStatusClosed
			}
		case order.ID != "":
			if target := b.findOrder(order.ID); target.IsOpen() {
				target.Size = order.Size
				target.Limit = order.Limit
			}
		default:
			order.ID = uuid.NewString()
			b.account.Orders = append(b.account.Orders, order)
		}
	}
	b.pending = nil
}

// limitSatisfied reports whether the observed price passes the order's limit.
// Orders without a limit fill unconditionally.
func limitSatisfied(order *domain.Order, price float64) bool {
	if order.Limit == 0 {
		return true
	}
	if order.IsBuy() {
		return price <= order.Limit
	}
	return price >= order.Limit
}

// fill executes the order's remaining size at the given price. Returns false
// when the fill is skipped because buying power is insufficient.
func (b *SimBroker) fill(order *domain.Order, price float64) (bool, error) {
	account := b.account

	required := account.RequiredBuyingPower(order, price)
	if required.Value > 0 {
		value, err := required.ConvertTo(account.BaseCurrency(), account.LastUpdate)
		if err != nil {
			return false, err
		}
		if value > account.BuyingPower.Value {
			slog.Warn("insufficient buying power, fill skipped",
				slog.String("order", order.ID),
				slog.Float64("required", value),
				slog.Float64("available", account.BuyingPower.Value))
			return false, nil
		}
	}

	size := order.Remaining()
	account.Cash.Withdraw(order.Asset.ContractAmount(size, price))
	b.updatePosition(order.Asset, size, price)
	return true, nil
}

// updatePosition applies a fill to the position map. Increasing fills update
// the volume-weighted average price; reducing fills leave it unchanged; a
// position whose size reaches exactly zero is removed, not zeroed.
func (b *SimBroker) updatePosition(asset domain.Asset, size decimal.Decimal, price float64) {
	account := b.account
	pos, ok := account.Positions[asset]
	if !ok {
		account.Positions[asset] = domain.Position{Size: size, AvgPrice: price, MktPrice: price}
		return
	}

	newSize := pos.Size.Add(size)
	switch {
	case newSize.IsZero():
		delete(account.Positions, asset)
	case newSize.Sign() != pos.Size.Sign():
		// The fill crossed through zero: what remains was opened at this price.
		account.Positions[asset] = domain.Position{Size: newSize, AvgPrice: price, MktPrice: price}
	case size.Sign() == pos.Size.Sign():
		oldValue := pos.Size.InexactFloat64() * pos.AvgPrice
		fillValue := size.InexactFloat64() * price
		avg := (oldValue + fillValue) / newSize.InexactFloat64()
		account.Positions[asset] = domain.Position{Size: newSize, AvgPrice: avg, MktPrice: price}
	default:
		account.Positions[asset] = domain.Position{Size: newSize, AvgPrice: pos.AvgPrice, MktPrice: price}
	}
}
