package feed

import (
	"fmt"
	"math/rand"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// RandomWalk is a synthetic historic feed whose prices follow a random walk.
// The same seed always yields the same series, so runs are reproducible.
type RandomWalk struct {
	*Historic
}

// NewRandomWalk generates events for nAssets assets, one bar per asset per
// interval, starting at start.
func NewRandomWalk(nAssets, nEvents int, start time.Time, interval time.Duration, seed int64) *RandomWalk {
	result := &RandomWalk{Historic: NewHistoric()}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < nAssets; i++ {
		asset := domain.Stock(fmt.Sprintf("ASSET%d", i))
		price := 50.0 + rng.Float64()*100.0
		t := start

		for j := 0; j < nEvents; j++ {
			open := price
			price *= 1.0 + (rng.Float64()-0.5)*0.02
			high := max(open, price) * (1.0 + rng.Float64()*0.005)
			low := min(open, price) * (1.0 - rng.Float64()*0.005)
			volume := 1_000.0 + rng.Float64()*10_000.0

			result.Add(t, event.NewBar(asset, [5]float64{open, high, low, price, volume}, interval.String()))
			t = t.Add(interval)
		}
	}
	return result
}
