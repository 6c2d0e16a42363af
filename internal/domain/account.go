package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Position of a single asset. Prices are denoted in the currency of the asset.
type Position struct {
	Size     decimal.Decimal // signed quantity, never zero while the position exists
	AvgPrice float64         // volume weighted average price paid
	MktPrice float64         // latest observed market price
}

// IsLong returns true for positions with a positive size.
func (p Position) IsLong() bool {
	return p.Size.IsPositive()
}

// IsShort returns true for positions with a negative size.
func (p Position) IsShort() bool {
	return p.Size.IsNegative()
}

// Account is the portfolio ledger of a run: buying power, cash, open positions
// and the order history, all stamped with the time of the last synchronization.
//
// Only the broker mutates an account and does so only inside its Sync call.
// Every other component must treat a returned account as a read-only snapshot.
// LastUpdate only moves forward and is the timestamp used for every currency
// conversion performed against this snapshot.
type Account struct {
	BuyingPower Amount
	Cash        Wallet
	Positions   map[Asset]Position
	Orders      []*Order
	LastUpdate  time.Time
}

// NewAccount creates an empty account with the given base currency.
func NewAccount(base Currency) *Account {
	return &Account{
		BuyingPower: Amount{Currency: base},
		Cash:        Wallet{},
		Positions:   map[Asset]Position{},
	}
}

// BaseCurrency returns the currency in which buying power and equity are reported.
func (a *Account) BaseCurrency() Currency {
	return a.BuyingPower.Currency
}

// MktValue returns the sum of the market values of all open positions.
func (a *Account) MktValue() Wallet {
	result := Wallet{}
	for asset, pos := range a.Positions {
		result.Deposit(asset.ContractAmount(pos.Size, pos.MktPrice))
	}
	return result
}

// Convert converts a wallet into the base currency at the account's last update time.
func (a *Account) Convert(w Wallet) (float64, error) {
	return w.ConvertTo(a.BaseCurrency(), a.LastUpdate)
}

// ContractValue returns the notional of a quantity of an asset at a price,
// converted to the base currency of the account.
func (a *Account) ContractValue(asset Asset, size decimal.Decimal, price float64) (float64, error) {
	return asset.ContractAmount(size, price).ConvertTo(a.BaseCurrency(), a.LastUpdate)
}

// Equity returns cash plus the market value of all open positions.
func (a *Account) Equity() Wallet {
	return a.Cash.Plus(a.MktValue())
}

// EquityValue returns the equity converted to the base currency.
func (a *Account) EquityValue() (float64, error) {
	return a.Convert(a.Equity())
}

// UnrealizedPNL returns the profit and loss of the open positions, per currency.
func (a *Account) UnrealizedPNL() Wallet {
	result := Wallet{}
	for asset, pos := range a.Positions {
		result.Deposit(asset.ContractAmount(pos.Size, pos.MktPrice-pos.AvgPrice))
	}
	return result
}

// PositionSize returns the position size for an asset, zero if no position exists.
func (a *Account) PositionSize(asset Asset) decimal.Decimal {
	return a.Positions[asset].Size
}

// RequiredBuyingPower returns the buying power an order consumes when it fills
// at the given price. Orders whose remaining size only reduces the magnitude
// of the existing position require none: closing risk is never blocked by
// buying-power limits. A limit order is valued at its limit; a market order
// at the price it fills at.
func (a *Account) RequiredBuyingPower(order *Order, price float64) Amount {
	posSize := a.PositionSize(order.Asset)
	newSize := posSize.Add(order.Remaining())
	if newSize.Abs().GreaterThan(posSize.Abs()) {
		if order.Limit != 0 {
			price = order.Limit
		}
		return order.Asset.ContractAmount(order.Remaining().Abs(), price)
	}
	return Amount{Currency: order.Asset.Currency}
}

// LongPositions returns the positions with a positive size.
func (a *Account) LongPositions() map[Asset]Position {
	result := map[Asset]Position{}
	for asset, pos := range a.Positions {
		if pos.IsLong() {
			result[asset] = pos
		}
	}
	return result
}

// ShortPositions returns the positions with a negative size.
func (a *Account) ShortPositions() map[Asset]Position {
	result := map[Asset]Position{}
	for asset, pos := range a.Positions {
		if pos.IsShort() {
			result[asset] = pos
		}
	}
	return result
}

// OpenOrders returns the orders that are still open.
func (a *Account) OpenOrders() []*Order {
	var result []*Order
	for _, o := range a.Orders {
		if o.IsOpen() {
			result = append(result, o)
		}
	}
	return result
}

func (a *Account) String() string {
	var positions []string
	for asset, pos := range a.Positions {
		positions = append(positions, fmt.Sprintf("%s@%s", pos.Size, asset.Symbol))
	}
	posStr := strings.Join(positions, ", ")
	if posStr == "" {
		posStr = "none"
	}
	return fmt.Sprintf("buying power=%s cash=%s positions=%s orders=%d last update=%s",
		a.BuyingPower, a.Cash, posStr, len(a.Orders), a.LastUpdate.Format(time.RFC3339))
}
