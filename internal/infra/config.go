package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. After LoadConfig parses the file,
// selected values can be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Run struct {
		BaseCurrency string  `yaml:"base_currency"`
		Deposit      float64 `yaml:"deposit"`
		Capacity     int     `yaml:"capacity"`     // event channel buffer size
		HeartbeatMS  int     `yaml:"heartbeat_ms"` // 0 disables the Get timeout
	} `yaml:"run"`

	Rates struct {
		Table           map[string]float64 `yaml:"table"` // base-currency value of 1 unit per currency
		PollURL         string             `yaml:"poll_url"`
		PollCurrency    string             `yaml:"poll_currency"` // currency the poll endpoint quotes against the base
		PollIntervalSec int                `yaml:"poll_interval_sec"`
	} `yaml:"rates"`

	Feed struct {
		CSVPath string `yaml:"csv_path"`
		SQLPath string `yaml:"sql_path"`
		Random  struct {
			Assets   int    `yaml:"assets"`
			Events   int    `yaml:"events"`
			Interval string `yaml:"interval"` // Go duration, e.g. 24h
			Seed     int64  `yaml:"seed"`
		} `yaml:"random"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Run.BaseCurrency == "" {
		return fmt.Errorf("base currency is required")
	}
	if c.Run.Deposit <= 0 {
		return fmt.Errorf("deposit must be positive")
	}
	if c.Run.Capacity <= 0 {
		return fmt.Errorf("channel capacity must be positive")
	}
	if c.Run.HeartbeatMS < 0 {
		return fmt.Errorf("heartbeat must not be negative")
	}
	if c.Rates.PollURL != "" && c.Rates.PollCurrency == "" {
		return fmt.Errorf("rate polling requires a poll currency")
	}
	for currency, rate := range c.Rates.Table {
		if rate <= 0 {
			return fmt.Errorf("rate for %s must be positive", currency)
		}
	}
	if c.Feed.Random.Interval != "" {
		if _, err := time.ParseDuration(c.Feed.Random.Interval); err != nil {
			return fmt.Errorf("invalid random feed interval: %w", err)
		}
	}
	return nil
}

// Heartbeat returns the configured Get timeout, or a negative duration when
// heartbeats are disabled and Get should block.
func (c *Config) Heartbeat() time.Duration {
	if c.Run.HeartbeatMS <= 0 {
		return -1
	}
	return time.Duration(c.Run.HeartbeatMS) * time.Millisecond
}

// overrideWithEnv replaces settings for which an environment variable exists.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("BACKTEST_RATES_URL"); url != "" {
		cfg.Rates.PollURL = url
	}
	if level := os.Getenv("BACKTEST_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("BACKTEST_SQL_PATH"); path != "" {
		cfg.Feed.SQLPath = path
	}
}
