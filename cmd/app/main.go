package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backtest_go/internal/app"
	"backtest_go/internal/domain"
	"backtest_go/internal/engine"
	"backtest_go/internal/feed"
	"backtest_go/internal/infra"
	"backtest_go/internal/journal"
	"backtest_go/internal/strategy"

	"github.com/shopspring/decimal"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Pprof server, localhost only
	go func() {
		slog.Info("pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	if err := bootstrap.StartRatePolling(ctx, domain.Currency(cfg.Rates.PollCurrency)); err != nil {
		slog.Error("rate polling setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	f, err := buildFeed(cfg)
	if err != nil {
		slog.Error("feed setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	assets := f.Assets()
	if len(assets) == 0 {
		slog.Error("feed produced no assets")
		os.Exit(1)
	}
	slog.Info("feed loaded", slog.Int("assets", len(assets)), slog.Int("events", len(f.Timeline())))

	base := domain.Currency(cfg.Run.BaseCurrency)
	broker := engine.NewSimBroker(domain.NewAmount(base, cfg.Run.Deposit))
	strat := strategy.NewSMACross(assets[0], 5, 20, decimal.NewFromInt(10))
	metrics := journal.NewMetricsJournal()
	jrnl := journal.NewMulti(journal.NewSlogJournal(100), metrics)

	account, err := engine.Run(ctx, f, strat, broker, jrnl, cfg.Run.Capacity, cfg.Heartbeat())
	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}

	snapshot := metrics.Snapshot()
	slog.Info("run completed",
		slog.Uint64("events", snapshot.EventsProcessed),
		slog.Uint64("orders", snapshot.OrdersPlaced),
		slog.Float64("equity", snapshot.LastEquity),
		slog.String("account", account.String()))
}

// buildFeed picks the feed from the configuration: recorded SQL data first,
// then CSV files, falling back to a random walk for demo runs.
func buildFeed(cfg *infra.Config) (feed.Feed, error) {
	if cfg.Feed.SQLPath != "" {
		return feed.NewSQL(cfg.Feed.SQLPath)
	}
	if cfg.Feed.CSVPath != "" {
		return feed.NewCSV(cfg.Feed.CSVPath, "1d")
	}

	interval := 24 * time.Hour
	if cfg.Feed.Random.Interval != "" {
		interval, _ = time.ParseDuration(cfg.Feed.Random.Interval)
	}
	nAssets := cfg.Feed.Random.Assets
	if nAssets <= 0 {
		nAssets = 3
	}
	nEvents := cfg.Feed.Random.Events
	if nEvents <= 0 {
		nEvents = 250
	}
	start := time.Now().UTC().Add(-time.Duration(nEvents) * interval)
	return feed.NewRandomWalk(nAssets, nEvents, start, interval, cfg.Feed.Random.Seed), nil
}
