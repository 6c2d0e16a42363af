package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	maxRetries       = 10
)

// TradeMessage is the venue-independent content of one live market message.
type TradeMessage struct {
	Asset  domain.Asset
	Price  float64
	Volume float64
	Time   time.Time
}

// Decoder turns a raw websocket message into a trade. Returning an error
// skips the message; venue payload formats live entirely in the decoder.
type Decoder func(data []byte) (TradeMessage, error)

// Live streams trades from a websocket endpoint into events, one event per
// message. It reconnects with exponential backoff until its context is
// cancelled or the consumer closes the channel. The retry policy stays here
// at the feed edge; the channel and broker never retry.
type Live struct {
	url       string
	subscribe []byte // payload sent after each connect, nil to skip
	assets    []domain.Asset
	decode    Decoder

	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex
}

// NewLive creates a live feed for the given endpoint. The subscribe payload
// is re-sent after every reconnect.
func NewLive(url string, subscribe []byte, assets []domain.Asset, decode Decoder) *Live {
	return &Live{url: url, subscribe: subscribe, assets: assets, decode: decode}
}

// Timeline returns nil: a live feed has no historic timeline.
func (l *Live) Timeline() []time.Time { return nil }

// Assets returns the subscribed assets.
func (l *Live) Assets() []domain.Asset { return l.assets }

// Play connects and pushes one event per decoded trade until the context is
// cancelled or the channel is closed.
func (l *Live) Play(ctx context.Context, ch *event.Channel) error {
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := l.connect(ctx); err != nil {
			slog.Warn("live feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		if err := l.readLoop(ctx, ch); err != nil {
			return err
		}
	}
}

func (l *Live) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.url, http.Header{})
	if err != nil {
		return domain.NewFeedError("connect", err)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	if l.subscribe != nil {
		if err := l.threadSafeWrite(websocket.TextMessage, l.subscribe); err != nil {
			l.closeConnection()
			return domain.NewFeedError("subscribe", err)
		}
	}

	slog.Info("live feed connected", slog.String("url", l.url), slog.Int("assets", len(l.assets)))
	return nil
}

func (l *Live) threadSafeWrite(msgType int, data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.conn == nil {
		return domain.ErrConnectionFailed
	}
	return l.conn.WriteMessage(msgType, data)
}

// readLoop reads until the connection drops (returns nil to trigger a
// reconnect) or delivery fails because the consumer went away.
func (l *Live) readLoop(ctx context.Context, ch *event.Channel) error {
	defer l.closeConnection()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.mu.RLock()
		conn := l.conn
		l.mu.RUnlock()
		if conn == nil {
			return nil
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("live feed read failed, reconnecting", slog.Any("error", err))
			return nil
		}

		msg, err := l.decode(data)
		if err != nil {
			slog.Debug("skipping undecodable message", slog.Any("error", err))
			continue
		}

		evt := event.New(msg.Time, []event.PriceItem{event.NewTrade(msg.Asset, msg.Price, msg.Volume)})
		if err := ch.Put(evt); err != nil {
			return err
		}
	}
}

func (l *Live) closeConnection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}
