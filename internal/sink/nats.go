package sink

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

func init() {
	Register("nats", func(opts interface{}) (Sink, error) {
		o, ok := opts.(NATSOptions)
		if !ok {
			return nil, fmt.Errorf("sink: nats requires NATSOptions")
		}
		return NewNATS(o)
	})
}

// NATSOptions configures the NATS sink: one payload per publish, no
// batching, per spec.md §4.5.
type NATSOptions struct {
	URL     string
	Subject string
}

// natsConn is the slice of *nats.Conn this sink depends on.
type natsConn interface {
	Publish(subj string, data []byte) error
	Flush() error
	Close()
}

type NATS struct {
	opts NATSOptions
	conn natsConn
}

func NewNATS(opts NATSOptions) (*NATS, error) {
	conn, err := nats.Connect(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("sink: nats connect %q: %w", opts.URL, err)
	}
	return &NATS{opts: opts, conn: conn}, nil
}

func (n *NATS) Send(ctx context.Context, payload []byte) error {
	return n.conn.Publish(n.opts.Subject, payload)
}

func (n *NATS) Flush(ctx context.Context) error {
	return n.conn.Flush()
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
