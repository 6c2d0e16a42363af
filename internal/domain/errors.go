package domain

import (
	"errors"
	"fmt"
	"time"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// ConversionError is returned when no exchange rate exists for a currency pair
// at the requested time. It signals a data-source gap and is never retried internally.
type ConversionError struct {
	From Currency
	To   Currency
	At   time.Time
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("no exchange rate %s/%s at %s", e.From, e.To, e.At.Format(time.RFC3339))
}

func (e *ConversionError) IsRetriable() bool {
	return false
}

// FeedError represents a data-feed transport error that may be retriable
type FeedError struct {
	Op        string // Operation that failed (e.g., "connect", "read", "decode")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *FeedError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *FeedError) IsRetriable() bool {
	return e.Retriable
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new retriable feed error
func NewFeedError(op string, err error) *FeedError {
	return &FeedError{Op: op, Err: err, Retriable: true}
}

// NewFatalFeedError creates a non-retriable feed error
func NewFatalFeedError(op string, err error) *FeedError {
	return &FeedError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrConnectionFailed is returned when a live feed connection fails. It's usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidSymbol is returned when a symbol is not supported or malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
