package event

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrChannelClosed is returned by Put once the channel can no longer accept events.
var ErrChannelClosed = errors.New("event channel closed")

// NoTimeout makes Get block until an event arrives or the stream ends.
const NoTimeout = time.Duration(-1)

// RecvStatus tags the outcome of a Get call, so consumers never conflate
// "no event yet" with "stream ended".
type RecvStatus int

const (
	// RecvOK means an event was received.
	RecvOK RecvStatus = iota
	// RecvTimeout means no event arrived within the timeout. Not an error.
	RecvTimeout
	// RecvClosed means the stream ended: the producer finished and the buffer
	// drained, or the consumer closed the channel.
	RecvClosed
)

func (s RecvStatus) String() string {
	switch s {
	case RecvOK:
		return "OK"
	case RecvTimeout:
		return "TIMEOUT"
	case RecvClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Channel decouples a feed's production rate from a consumer's processing
// rate with a bounded buffer. A full buffer blocks the producer, which is the
// only flow-control mechanism: events are never dropped or sampled.
//
// The channel is a single-producer structure. The producer calls Put and
// finally Done; the consumer calls Get and may call Close to tear down early,
// which makes blocked and future Put calls fail fast instead of hanging.
type Channel struct {
	ch     chan *Event
	done   chan struct{}
	closed uint32 // consumer-side close
	eos    uint32 // producer-side end-of-stream
}

// NewChannel allocates a channel with the given buffer capacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = 1
	}
	return &Channel{
		ch:   make(chan *Event, capacity),
		done: make(chan struct{}),
	}
}

// Put delivers an event to the consumer, blocking while the buffer is full.
// It returns ErrChannelClosed once the consumer has closed the channel.
// Must not be called after Done.
func (c *Channel) Put(e *Event) error {
	if atomic.LoadUint32(&c.closed) != 0 {
		return ErrChannelClosed
	}
	select {
	case c.ch <- e:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}

// Get returns the next event. With NoTimeout it blocks until an event is
// available or the stream ends. A non-negative timeout bounds the wait and
// yields RecvTimeout when it elapses, which is a normal outcome, not an error.
func (c *Channel) Get(timeout time.Duration) (*Event, RecvStatus) {
	if timeout < 0 {
		select {
		case e, ok := <-c.ch:
			if !ok {
				return nil, RecvClosed
			}
			return e, RecvOK
		case <-c.done:
			return nil, RecvClosed
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e, ok := <-c.ch:
		if !ok {
			return nil, RecvClosed
		}
		return e, RecvOK
	case <-c.done:
		return nil, RecvClosed
	case <-timer.C:
		return nil, RecvTimeout
	}
}

// Done marks the end of the stream. Buffered events are still delivered;
// afterwards every Get returns RecvClosed. Only the producer calls Done.
func (c *Channel) Done() {
	if atomic.CompareAndSwapUint32(&c.eos, 0, 1) {
		close(c.ch)
	}
}

// Close tears the channel down from the consumer side. Blocked and future
// Put calls return ErrChannelClosed promptly; a replaying producer observes
// the cancellation at its next Put at the latest.
func (c *Channel) Close() {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		close(c.done)
	}
}

// Exhausted reports whether the producer has signaled end-of-stream.
func (c *Channel) Exhausted() bool {
	return atomic.LoadUint32(&c.eos) != 0
}
