// Package broker implements the bounded queue that decouples input
// connections from output workers (spec.md §4.4).
package broker

import (
	"context"
	"errors"
)

// ErrInvalidCapacity is returned by New when capacity is not positive.
var ErrInvalidCapacity = errors.New("broker: capacity must be greater than zero")

// Broker is a fixed-capacity FIFO of encoded payloads. Producers (one
// goroutine per input connection) and consumers (output workers) both
// block rather than drop: backpressure from a slow sink propagates to
// the input side instead of growing memory without bound.
type Broker struct {
	ch chan []byte
}

// New creates a Broker with the given capacity. Capacity must be
// greater than zero; 0 would make the queue synchronous and is
// rejected at configuration time rather than silently accepted.
func New(capacity int) (*Broker, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Broker{ch: make(chan []byte, capacity)}, nil
}

// Put enqueues payload, blocking until space is available or ctx is
// done. A returned error is always ctx.Err().
func (b *Broker) Put(ctx context.Context, payload []byte) error {
	select {
	case b.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues the next payload, blocking until one is available or
// ctx is done.
func (b *Broker) Get(ctx context.Context) ([]byte, error) {
	select {
	case p := <-b.ch:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of payloads currently queued.
func (b *Broker) Len() int {
	return len(b.ch)
}

// Cap reports the configured capacity.
func (b *Broker) Cap() int {
	return cap(b.ch)
}

// Close closes the underlying channel. Any blocked or future Get
// drains remaining buffered payloads before receiving the zero value;
// callers should stop calling Put once Close has been invoked.
func (b *Broker) Close() {
	close(b.ch)
}
