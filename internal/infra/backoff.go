package infra

import "time"

const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 60 * time.Second
)

// CalculateBackoff returns the exponential backoff delay for a retry attempt.
func CalculateBackoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	delay := baseBackoff << uint(retry)
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}
