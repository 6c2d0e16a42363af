package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
)

// Feed is an ordered producer of events. Historic feeds replay a fixed
// timeline; live feeds produce events until their context is cancelled.
type Feed interface {
	// Timeline returns the ordered timestamps this feed will produce events at.
	// A live feed has no timeline and returns nil.
	Timeline() []time.Time

	// Assets returns the distinct assets observed by this feed.
	Assets() []domain.Asset

	// Play pushes every event, in non-decreasing time order, into the channel.
	// It returns when the feed is exhausted, the context is cancelled or the
	// channel is closed by the consumer. Play does not call Done on the channel.
	Play(ctx context.Context, ch *event.Channel) error
}

// PlayBackground plays the feed on a single background goroutine and returns
// the channel the caller reads from. The channel is marked exhausted once the
// feed completes, so Get eventually reports RecvClosed to the consumer.
func PlayBackground(ctx context.Context, f Feed, capacity int) *event.Channel {
	ch := event.NewChannel(capacity)
	go func() {
		defer ch.Done()
		if err := f.Play(ctx, ch); err != nil && !errors.Is(err, event.ErrChannelClosed) {
			slog.Error("feed replay failed", slog.Any("error", err))
		}
	}()
	return ch
}
