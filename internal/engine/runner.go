package engine

import (
	"context"
	"log/slog"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/feed"
	"backtest_go/internal/journal"
	"backtest_go/internal/strategy"
)

// Run replays a feed through a broker and strategy until the feed is
// exhausted, the heartbeat elapses or the context is cancelled, then returns
// the final account from a last bookkeeping-only sync.
//
// The feed plays on one background goroutine; everything else happens on the
// calling goroutine. A negative heartbeat blocks until the stream ends; a
// non-negative one bounds each wait, which also bounds how long a quiet live
// feed keeps a run alive. The journal is invoked once per event and must not
// mutate the account.
func Run(
	ctx context.Context,
	f feed.Feed,
	strat strategy.Strategy,
	broker Broker,
	jrnl journal.Journal,
	capacity int,
	heartbeat time.Duration,
) (*domain.Account, error) {
	if broker == nil {
		broker = NewSimBroker(domain.NewAmount(domain.USD, 1_000_000))
	}

	ch := feed.PlayBackground(ctx, f, capacity)
	defer ch.Close() // unblocks the producer if we bail out early

	for {
		evt, status := ch.Get(heartbeat)
		if status == event.RecvClosed {
			break
		}
		if status == event.RecvTimeout {
			slog.Info("no event within heartbeat, ending run")
			break
		}

		account, err := broker.Sync(evt)
		if err != nil {
			return nil, err
		}

		orders := strat.CreateOrders(evt, account)
		broker.PlaceOrders(orders...)

		if jrnl != nil {
			jrnl.Track(evt, account, orders)
		}
	}

	return broker.Sync(nil)
}
