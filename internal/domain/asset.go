package domain

import (
	"github.com/shopspring/decimal"
)

// Asset identifies a tradable instrument: a symbol, the currency it settles in,
// and a contract multiplier (1 for stocks and spot pairs, the contract size for futures).
// Asset is a value type and is used as a map key.
type Asset struct {
	Symbol     string
	Currency   Currency
	Multiplier float64
}

// Stock creates a USD denominated stock asset.
func Stock(symbol string) Asset {
	return Asset{Symbol: symbol, Currency: USD, Multiplier: 1.0}
}

// Crypto creates a crypto asset settling in the given currency.
func Crypto(symbol string, currency Currency) Asset {
	return Asset{Symbol: symbol, Currency: currency, Multiplier: 1.0}
}

// Future creates a futures contract with a fixed contract size.
func Future(symbol string, currency Currency, contractSize float64) Asset {
	return Asset{Symbol: symbol, Currency: currency, Multiplier: contractSize}
}

// ContractAmount returns the notional value of a signed quantity at a price,
// denoted in the asset's own currency. Linear in size and price, scaled by the multiplier.
func (a Asset) ContractAmount(size decimal.Decimal, price float64) Amount {
	value := size.InexactFloat64() * price * a.Multiplier
	return Amount{Currency: a.Currency, Value: value}
}
