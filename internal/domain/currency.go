package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Currency identifies the denomination of a monetary value.
// Amounts of different currencies never combine without an explicit conversion.
type Currency string

const (
	USD  Currency = "USD"
	EUR  Currency = "EUR"
	JPY  Currency = "JPY"
	GBP  Currency = "GBP"
	KRW  Currency = "KRW"
	USDT Currency = "USDT"
	BTC  Currency = "BTC"
)

// RateProvider supplies the exchange rate between two currencies at a moment in time.
// Historic replays pass the event time so valuations stay historically accurate.
type RateProvider interface {
	Rate(from, to Currency, at time.Time) (float64, error)
}

// NoRates is the default provider: it only supports identity conversions.
type NoRates struct{}

func (NoRates) Rate(from, to Currency, at time.Time) (float64, error) {
	if from == to {
		return 1.0, nil
	}
	return 0, &ConversionError{From: from, To: to, At: at}
}

var (
	ratesMu sync.RWMutex
	rates   RateProvider = NoRates{}
)

// SetRates registers the process-wide rate provider used by Amount and Wallet conversions.
func SetRates(p RateProvider) {
	ratesMu.Lock()
	defer ratesMu.Unlock()
	if p == nil {
		p = NoRates{}
	}
	rates = p
}

func rateProvider() RateProvider {
	ratesMu.RLock()
	defer ratesMu.RUnlock()
	return rates
}

// Amount is a currency-tagged scalar value.
type Amount struct {
	Currency Currency
	Value    float64
}

// NewAmount creates an amount of the given currency.
func NewAmount(c Currency, value float64) Amount {
	return Amount{Currency: c, Value: value}
}

// Add returns the sum of two amounts of the same currency.
func (a Amount) Add(other Amount) Amount {
	if a.Currency != other.Currency {
		panic(fmt.Sprintf("CURRENCY_MISMATCH: %s + %s", a.Currency, other.Currency))
	}
	return Amount{Currency: a.Currency, Value: a.Value + other.Value}
}

// Sub returns the difference of two amounts of the same currency.
func (a Amount) Sub(other Amount) Amount {
	if a.Currency != other.Currency {
		panic(fmt.Sprintf("CURRENCY_MISMATCH: %s - %s", a.Currency, other.Currency))
	}
	return Amount{Currency: a.Currency, Value: a.Value - other.Value}
}

// ConvertTo returns the value of this amount in the target currency at the given time.
// Identity conversion never consults the rate provider.
func (a Amount) ConvertTo(target Currency, at time.Time) (float64, error) {
	if a.Currency == target {
		return a.Value, nil
	}
	rate, err := rateProvider().Rate(a.Currency, target, at)
	if err != nil {
		return 0, err
	}
	return a.Value * rate, nil
}

func (a Amount) String() string {
	return fmt.Sprintf("%.2f %s", a.Value, a.Currency)
}

// Wallet holds one scalar balance per currency. An absent currency means zero.
type Wallet map[Currency]float64

// NewWallet creates a wallet seeded with the provided amounts.
func NewWallet(amounts ...Amount) Wallet {
	w := Wallet{}
	for _, a := range amounts {
		w.Deposit(a)
	}
	return w
}

// Deposit adds the amount to the balance of its currency. Negative values withdraw.
func (w Wallet) Deposit(a Amount) {
	w[a.Currency] += a.Value
}

// Withdraw subtracts the amount from the balance of its currency.
func (w Wallet) Withdraw(a Amount) {
	w[a.Currency] -= a.Value
}

// Plus returns a new wallet with the per-currency sums of both wallets.
// No currency is ever dropped.
func (w Wallet) Plus(other Wallet) Wallet {
	result := w.Clone()
	for c, v := range other {
		result[c] += v
	}
	return result
}

// Clone returns a copy of the wallet.
func (w Wallet) Clone() Wallet {
	result := make(Wallet, len(w))
	for c, v := range w {
		result[c] = v
	}
	return result
}

// ConvertTo sums the converted value of every balance in the target currency.
// An empty wallet converts to zero without any rate lookup.
func (w Wallet) ConvertTo(target Currency, at time.Time) (float64, error) {
	var total float64
	for c, v := range w {
		converted, err := Amount{Currency: c, Value: v}.ConvertTo(target, at)
		if err != nil {
			return 0, err
		}
		total += converted
	}
	return total, nil
}

func (w Wallet) String() string {
	if len(w) == 0 {
		return "empty"
	}
	currencies := make([]string, 0, len(w))
	for c := range w {
		currencies = append(currencies, string(c))
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, Amount{Currency: Currency(c), Value: w[Currency(c)]}.String())
	}
	return strings.Join(parts, " + ")
}
