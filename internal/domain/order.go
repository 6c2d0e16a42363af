package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusOpen   = "OPEN"
	OrderStatusClosed = "CLOSED"
)

// Order is a trade request for an asset. Positive sizes buy, negative sizes sell.
// A zero Limit means a market order. The ID and Fill fields are owned by the broker:
// the ID is assigned when the order is first processed and Fill tracks execution progress.
// Once the status is CLOSED the order is terminal and never mutated again.
type Order struct {
	ID     string
	Asset  Asset
	Size   decimal.Decimal
	Limit  float64   // limit price in the asset's currency, 0 for market orders
	GTD    time.Time // good till date, zero value means no expiry
	Fill   decimal.Decimal
	Status string
}

// NewOrder creates a market order. Panics if size is zero: an order must
// request a trade, zero-size orders are reserved for cancellations.
func NewOrder(asset Asset, size decimal.Decimal) *Order {
	if size.IsZero() {
		panic("ORDER_SIZE_ZERO: cannot create an order with size zero")
	}
	return &Order{Asset: asset, Size: size, Status: OrderStatusOpen}
}

// NewLimitOrder creates an order that only fills when the observed price
// satisfies the limit.
func NewLimitOrder(asset Asset, size decimal.Decimal, limit float64) *Order {
	o := NewOrder(asset, size)
	o.Limit = limit
	return o
}

// Remaining returns the unfilled size. Negative for sell orders, so
// size == fill + remaining always holds.
func (o *Order) Remaining() decimal.Decimal {
	return o.Size.Sub(o.Fill)
}

// IsOpen checks if the order is still active.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

// IsClosed checks if the order reached its terminal state.
func (o *Order) IsClosed() bool {
	return o.Status == OrderStatusClosed
}

// IsBuy returns true for orders with a positive size.
func (o *Order) IsBuy() bool {
	return o.Size.IsPositive()
}

// IsSell returns true for orders with a negative size.
func (o *Order) IsSell() bool {
	return o.Size.IsNegative()
}

// IsCancellation returns true if this order cancels a previously placed order.
func (o *Order) IsCancellation() bool {
	return o.Size.IsZero()
}

// IsExpired returns true if the order carries a good-till-date in the past.
func (o *Order) IsExpired(t time.Time) bool {
	return !o.GTD.IsZero() && t.After(o.GTD)
}

// Cancel creates a cancellation order for this order. Only orders that already
// have a broker-assigned id can be cancelled.
func (o *Order) Cancel() *Order {
	if o.ID == "" {
		panic("ORDER_ID_MISSING: can only cancel an order with an assigned id")
	}
	result := o.clone()
	result.Size = decimal.Zero
	return result
}

// Modify creates an update-order carrying the same id with a new size and/or limit.
// A zero size is rejected; use Cancel to cancel an order.
func (o *Order) Modify(size decimal.Decimal, limit float64) *Order {
	if o.ID == "" {
		panic("ORDER_ID_MISSING: can only modify an order with an assigned id")
	}
	if size.IsZero() {
		panic("ORDER_SIZE_ZERO: size cannot be modified to zero, use Cancel instead")
	}
	result := o.clone()
	result.Size = size
	if limit != 0 {
		result.Limit = limit
	}
	return result
}

func (o *Order) clone() *Order {
	result := *o
	return &result
}

func (o *Order) String() string {
	return fmt.Sprintf("order %s %s@%s status=%s fill=%s", o.ID, o.Size, o.Asset.Symbol, o.Status, o.Fill)
}
