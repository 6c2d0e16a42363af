package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BarRow is the storage schema for one recorded bar.
type BarRow struct {
	ID         uint   `gorm:"primaryKey"`
	Time       int64  `gorm:"index"` // unix nanoseconds, UTC
	Symbol     string `gorm:"index"`
	Currency   string
	Multiplier float64
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Frequency  string
}

// SQL records bar price-items from another feed into a SQLite database and
// plays them back in time order during a run. Appending to an existing
// database is supported; rows from multiple recordings interleave by time.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens (or creates) the database at the given path.
func NewSQL(path string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&BarRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQL{db: db}, nil
}

// Record drains the source feed and stores every bar it produces.
// Non-bar price items are skipped.
func (s *SQL) Record(ctx context.Context, source Feed, capacity int) error {
	ch := PlayBackground(ctx, source, capacity)
	var rows []BarRow

	for {
		evt, status := ch.Get(event.NoTimeout)
		if status != event.RecvOK {
			break
		}
		for _, item := range evt.Items {
			bar, ok := item.(*event.Bar)
			if !ok {
				continue
			}
			asset := bar.Asset()
			ohlcv := bar.OHLCV()
			rows = append(rows, BarRow{
				Time:       evt.Time.UnixNano(),
				Symbol:     asset.Symbol,
				Currency:   string(asset.Currency),
				Multiplier: asset.Multiplier,
				Open:       ohlcv[0],
				High:       ohlcv[1],
				Low:        ohlcv[2],
				Close:      ohlcv[3],
				Volume:     ohlcv[4],
				Frequency:  bar.Frequency(),
			})
		}
	}

	if len(rows) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("failed to store bars: %w", err)
	}
	slog.Info("recorded bars", slog.Int("rows", len(rows)))
	return nil
}

// NumberItems returns the number of recorded bars.
func (s *SQL) NumberItems() (int64, error) {
	var count int64
	err := s.db.Model(&BarRow{}).Count(&count).Error
	return count, err
}

// Timeline returns the distinct recorded timestamps in order.
func (s *SQL) Timeline() []time.Time {
	var stamps []int64
	if err := s.db.Model(&BarRow{}).Distinct("time").Order("time").Pluck("time", &stamps).Error; err != nil {
		slog.Error("failed to load timeline", slog.Any("error", err))
		return nil
	}

	result := make([]time.Time, len(stamps))
	for i, ns := range stamps {
		result[i] = time.Unix(0, ns).UTC()
	}
	return result
}

// Assets returns the distinct assets present in the database.
func (s *SQL) Assets() []domain.Asset {
	var rows []BarRow
	if err := s.db.Model(&BarRow{}).Distinct("symbol", "currency", "multiplier").Find(&rows).Error; err != nil {
		slog.Error("failed to load assets", slog.Any("error", err))
		return nil
	}

	result := make([]domain.Asset, len(rows))
	for i, row := range rows {
		result[i] = domain.Asset{Symbol: row.Symbol, Currency: domain.Currency(row.Currency), Multiplier: row.Multiplier}
	}
	return result
}

// Play replays the recorded bars in time order, coalescing rows with the same
// timestamp into a single event.
func (s *SQL) Play(ctx context.Context, ch *event.Channel) error {
	var rows []BarRow
	if err := s.db.Order("time").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load bars: %w", err)
	}

	var items []event.PriceItem
	var current int64
	flush := func() error {
		if len(items) == 0 {
			return nil
		}
		evt := event.New(time.Unix(0, current).UTC(), items)
		items = nil
		return ch.Put(evt)
	}

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if row.Time != current {
			if err := flush(); err != nil {
				return err
			}
			current = row.Time
		}

		asset := domain.Asset{Symbol: row.Symbol, Currency: domain.Currency(row.Currency), Multiplier: row.Multiplier}
		ohlcv := [5]float64{row.Open, row.High, row.Low, row.Close, row.Volume}
		items = append(items, event.NewBar(asset, ohlcv, row.Frequency))
	}
	return flush()
}
