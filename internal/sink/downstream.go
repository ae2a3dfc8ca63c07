package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/awslabs/flowgger/internal/framing"
)

func init() {
	Register("tls", func(opts interface{}) (Sink, error) {
		o, ok := opts.(DownstreamOptions)
		if !ok {
			return nil, fmt.Errorf("sink: tls requires DownstreamOptions")
		}
		return NewDownstream(o)
	})
}

// DownstreamOptions configures the downstream-Flowgger/NATS-style TCP
// sink: one payload per write, framed the same way an input transport
// would parse it, no batching (spec.md §4.5).
type DownstreamOptions struct {
	Addr      string
	Framing   framing.Policy
	TLSConfig *tls.Config // nil for plain TCP
}

// Downstream is a thin client that re-emits payloads to another
// Flowgger instance (or any peer speaking the same framing), reusing
// the same Policy the input side would use to parse it back apart.
type Downstream struct {
	opts DownstreamOptions

	mu   sync.Mutex
	conn net.Conn
}

func NewDownstream(opts DownstreamOptions) (*Downstream, error) {
	d := &Downstream{opts: opts}
	if err := d.connect(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Downstream) connect() error {
	var conn net.Conn
	var err error
	if d.opts.TLSConfig != nil {
		conn, err = tls.Dial("tcp", d.opts.Addr, d.opts.TLSConfig)
	} else {
		conn, err = net.Dial("tcp", d.opts.Addr)
	}
	if err != nil {
		return fmt.Errorf("sink: dial %q: %w", d.opts.Addr, err)
	}
	d.conn = conn
	return nil
}

func (d *Downstream) Send(ctx context.Context, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := framing.WriteFrame(d.conn, d.opts.Framing, payload); err != nil {
		// one reconnect attempt; a second failure is surfaced to the
		// caller as a transport error per spec.md §7.
		if rerr := d.connect(); rerr != nil {
			return rerr
		}
		return framing.WriteFrame(d.conn, d.opts.Framing, payload)
	}
	return nil
}

func (d *Downstream) Flush(ctx context.Context) error {
	return nil
}

func (d *Downstream) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
