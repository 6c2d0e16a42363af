package app

import (
	"context"
	"log/slog"

	"backtest_go/internal/domain"
	"backtest_go/internal/infra"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Rates   domain.RateProvider
	polling *infra.PollingRates
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration, wires the logger and registers the
// exchange-rate provider.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	base := domain.Currency(cfg.Run.BaseCurrency)
	b.Rates = infra.NewTableRates(base, cfg.Rates.Table)
	domain.SetRates(b.Rates)
	slog.Info("rate table loaded", slog.Int("currencies", len(cfg.Rates.Table)))

	return nil
}

// StartRatePolling layers a live-updating rate on top of the static table
// when a poll URL is configured. No-op otherwise.
func (b *Bootstrap) StartRatePolling(ctx context.Context, currency domain.Currency) error {
	cfg := b.Config
	if cfg.Rates.PollURL == "" {
		return nil
	}

	base := domain.Currency(cfg.Run.BaseCurrency)
	b.polling = infra.NewPollingRates(b.Rates, base, currency, cfg.Rates.PollURL, cfg.Rates.PollIntervalSec)
	if err := b.polling.Start(ctx); err != nil {
		return err
	}
	domain.SetRates(b.polling)
	slog.Info("rate polling started", slog.String("url", cfg.Rates.PollURL))
	return nil
}

// Shutdown stops background workers started by the bootstrap.
func (b *Bootstrap) Shutdown() {
	if b.polling != nil {
		b.polling.Stop()
	}
}
