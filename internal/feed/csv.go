package feed

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// CSV is a historic feed loaded from bar CSV files. Each file holds the bars
// of one asset, with the symbol taken from the file name. The expected header
// is Date,Open,High,Low,Close,Volume; dates are RFC 3339 timestamps or plain
// dates (interpreted as UTC midnight).
type CSV struct {
	*Historic
}

// NewCSV loads a single CSV file, or every .csv file under a directory.
func NewCSV(path string, frequency string) (*CSV, error) {
	result := &CSV{Historic: NewHistoric()}

	files, err := csvFiles(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loading csv files", slog.Int("files", len(files)), slog.String("path", path))

	for _, file := range files {
		if err := result.parseFile(file, frequency); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
	}
	return result, nil
}

func csvFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".csv") {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func (c *CSV) parseFile(file string, frequency string) error {
	symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
	asset := domain.Stock(symbol)

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return nil
	}

	// Skip the header row
	for _, row := range rows[1:] {
		if len(row) < 6 {
			return fmt.Errorf("expected 6 columns, got %d", len(row))
		}

		t, err := parseTime(row[0])
		if err != nil {
			return err
		}

		var ohlcv [5]float64
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return fmt.Errorf("column %d: %w", i+1, err)
			}
			ohlcv[i] = v
		}

		c.Add(t, event.NewBar(asset, ohlcv, frequency))
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
