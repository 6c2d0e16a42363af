package event

import (
	"fmt"
	"time"

	"backtest_go/internal/domain"
)

// Price and volume type selectors understood by the price items.
const (
	PriceDefault = "DEFAULT"
	PriceOpen    = "OPEN"
	PriceHigh    = "HIGH"
	PriceLow     = "LOW"
	PriceClose   = "CLOSE"
	PriceAsk     = "ASK"
	PriceBid     = "BID"
)

// PriceItem is a single price observation for an asset, like a trade, a quote
// or a bar. Unknown price/volume type selectors fall back to the default.
type PriceItem interface {
	Asset() domain.Asset
	Price(priceType string) float64
	Volume(volumeType string) float64
}

// Trade holds a single traded price and volume.
type Trade struct {
	asset  domain.Asset
	price  float64
	volume float64
}

// NewTrade creates a trade price-item.
func NewTrade(asset domain.Asset, price, volume float64) *Trade {
	return &Trade{asset: asset, price: price, volume: volume}
}

func (t *Trade) Asset() domain.Asset { return t.asset }

func (t *Trade) Price(priceType string) float64 { return t.price }

func (t *Trade) Volume(volumeType string) float64 { return t.volume }

// Quote holds ask and bid prices with their volumes.
type Quote struct {
	asset     domain.Asset
	askPrice  float64
	askVolume float64
	bidPrice  float64
	bidVolume float64
}

// NewQuote creates a quote price-item from ask/bid prices and volumes.
func NewQuote(asset domain.Asset, askPrice, askVolume, bidPrice, bidVolume float64) *Quote {
	return &Quote{asset: asset, askPrice: askPrice, askVolume: askVolume, bidPrice: bidPrice, bidVolume: bidVolume}
}

func (q *Quote) Asset() domain.Asset { return q.asset }

// Price returns the ask, bid or (default) mid-point price.
func (q *Quote) Price(priceType string) float64 {
	switch priceType {
	case PriceAsk:
		return q.askPrice
	case PriceBid:
		return q.bidPrice
	default:
		return (q.askPrice + q.bidPrice) / 2.0
	}
}

// Volume returns the ask, bid or (default) average volume.
func (q *Quote) Volume(volumeType string) float64 {
	switch volumeType {
	case PriceAsk:
		return q.askVolume
	case PriceBid:
		return q.bidVolume
	default:
		return (q.askVolume + q.bidVolume) / 2.0
	}
}

// Spread returns the difference between the ask and bid price.
func (q *Quote) Spread() float64 {
	return q.askPrice - q.bidPrice
}

// Bar is a candlestick with open, high, low, close and volume data.
type Bar struct {
	asset     domain.Asset
	ohlcv     [5]float64
	frequency string // e.g. 1s, 15m, 4h, 1d
}

// NewBar creates a bar price-item from [open, high, low, close, volume] data.
func NewBar(asset domain.Asset, ohlcv [5]float64, frequency string) *Bar {
	return &Bar{asset: asset, ohlcv: ohlcv, frequency: frequency}
}

func (b *Bar) Asset() domain.Asset { return b.asset }

// OHLCV returns the raw open, high, low, close and volume data.
func (b *Bar) OHLCV() [5]float64 { return b.ohlcv }

// Frequency returns the bar frequency, for example 1d.
func (b *Bar) Frequency() string { return b.frequency }

// Price returns the requested price, the default being the close price.
func (b *Bar) Price(priceType string) float64 {
	switch priceType {
	case PriceOpen:
		return b.ohlcv[0]
	case PriceHigh:
		return b.ohlcv[1]
	case PriceLow:
		return b.ohlcv[2]
	default:
		return b.ohlcv[3]
	}
}

func (b *Bar) Volume(volumeType string) float64 { return b.ohlcv[4] }

// Event contains zero or more price items observed at the same moment in time.
// Feeds produce events in non-decreasing time order.
type Event struct {
	Time  time.Time
	Items []PriceItem

	priceItems map[domain.Asset]PriceItem // lazily built on first access
}

// New creates an event holding the given items.
func New(t time.Time, items []PriceItem) *Event {
	return &Event{Time: t, Items: items}
}

// Empty creates an event without any items, used as a heartbeat.
func Empty(t time.Time) *Event {
	return &Event{Time: t}
}

// IsEmpty returns true if the event carries no items.
func (e *Event) IsEmpty() bool {
	return len(e.Items) == 0
}

// PriceItems returns the price item per asset. The map is built on first
// access and cached; events are processed by a single consumer.
func (e *Event) PriceItems() map[domain.Asset]PriceItem {
	if e.priceItems == nil {
		e.priceItems = make(map[domain.Asset]PriceItem, len(e.Items))
		for _, item := range e.Items {
			e.priceItems[item.Asset()] = item
		}
	}
	return e.priceItems
}

// Price returns the price of the given type for an asset, false if the event
// holds no item for it.
func (e *Event) Price(asset domain.Asset, priceType string) (float64, bool) {
	if item, ok := e.PriceItems()[asset]; ok {
		return item.Price(priceType), true
	}
	return 0, false
}

func (e *Event) String() string {
	return fmt.Sprintf("event time=%s items=%d", e.Time.Format(time.RFC3339), len(e.Items))
}
