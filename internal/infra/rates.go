package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"backtest_go/internal/domain"

	"github.com/shopspring/decimal"
)

// TableRates converts currencies through a base currency with a fixed table.
// The table maps each currency to the value of one unit in the base currency;
// the base itself is implied at 1.0. The table is constant over time, so the
// timestamp of a lookup is ignored.
type TableRates struct {
	Base  domain.Currency
	Table map[domain.Currency]float64
}

// NewTableRates builds a provider from a config rates table.
func NewTableRates(base domain.Currency, table map[string]float64) *TableRates {
	result := &TableRates{Base: base, Table: map[domain.Currency]float64{base: 1.0}}
	for currency, rate := range table {
		result.Table[domain.Currency(currency)] = rate
	}
	return result
}

// Rate implements domain.RateProvider.
func (t *TableRates) Rate(from, to domain.Currency, at time.Time) (float64, error) {
	if from == to {
		return 1.0, nil
	}
	fromRate, ok := t.Table[from]
	if !ok {
		return 0, &domain.ConversionError{From: from, To: to, At: at}
	}
	toRate, ok := t.Table[to]
	if !ok {
		return 0, &domain.ConversionError{From: from, To: to, At: at}
	}
	return fromRate / toRate, nil
}

// rateResponse is the payload expected from a rate poll endpoint.
type rateResponse struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"` // base-currency value of 1 unit
}

// PollingRates periodically fetches a single exchange rate over HTTP and
// layers it on top of a fallback provider. Lookups for the polled currency
// use the latest fetched rate; everything else is delegated.
type PollingRates struct {
	fallback     domain.RateProvider
	base         domain.Currency
	currency     domain.Currency
	rate         decimal.Decimal
	mu           sync.RWMutex
	pollInterval time.Duration
	apiURL       string
	httpClient   *http.Client
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewPollingRates creates a polling provider for one currency against the base.
func NewPollingRates(fallback domain.RateProvider, base, currency domain.Currency, apiURL string, pollIntervalSec int) *PollingRates {
	interval := 60 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &PollingRates{
		fallback:     fallback,
		base:         base,
		currency:     currency,
		rate:         decimal.Zero,
		pollInterval: interval,
		apiURL:       apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start begins polling for rate updates
func (p *PollingRates) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	// Fetch immediately on start
	if err := p.fetchRate(ctx); err != nil {
		slog.Warn("initial rate fetch failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("rate polling stopped")
				return
			case <-ticker.C:
				if err := p.fetchRate(ctx); err != nil {
					slog.Warn("rate fetch failed", slog.Any("error", err))
				}
			}
		}
	}()
	return nil
}

// Stop cancels polling and waits for the background goroutine.
func (p *PollingRates) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *PollingRates) fetchRate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.NewFeedError("fetch rate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewFeedError("fetch rate", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewFeedError("read rate", err)
	}

	var payload rateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.NewFatalFeedError("decode rate", err)
	}
	if payload.Rate <= 0 {
		return domain.NewFatalFeedError("decode rate", fmt.Errorf("non-positive rate %f", payload.Rate))
	}

	p.mu.Lock()
	p.rate = decimal.NewFromFloat(payload.Rate)
	p.mu.Unlock()

	slog.Debug("rate updated", slog.String("currency", payload.Currency), slog.Float64("rate", payload.Rate))
	return nil
}

// Rate implements domain.RateProvider.
func (p *PollingRates) Rate(from, to domain.Currency, at time.Time) (float64, error) {
	if from == to {
		return 1.0, nil
	}

	p.mu.RLock()
	rate := p.rate
	p.mu.RUnlock()

	if !rate.IsZero() {
		switch {
		case from == p.currency && to == p.base:
			return rate.InexactFloat64(), nil
		case from == p.base && to == p.currency:
			return decimal.NewFromInt(1).Div(rate).InexactFloat64(), nil
		}
	}
	if p.fallback != nil {
		return p.fallback.Rate(from, to, at)
	}
	return 0, &domain.ConversionError{From: from, To: to, At: at}
}
