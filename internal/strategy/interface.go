package strategy

import (
	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// Strategy turns an event and the current account snapshot into orders.
// It is called synchronously by the run loop, after the broker has synced the
// account with the event. The account is a read-only snapshot; strategies
// only act on it by returning orders.
type Strategy interface {
	CreateOrders(evt *event.Event, account *domain.Account) []*domain.Order
}

// None is a strategy that never trades, useful for replaying a feed through
// the bookkeeping without taking positions.
type None struct{}

func (None) CreateOrders(evt *event.Event, account *domain.Account) []*domain.Order {
	return nil
}
