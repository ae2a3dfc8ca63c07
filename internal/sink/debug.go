package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

func init() {
	Register("debug", func(opts interface{}) (Sink, error) {
		o, _ := opts.(DebugOptions)
		if o.Writer == nil {
			return nil, fmt.Errorf("sink: debug requires DebugOptions.Writer")
		}
		return NewDebug(o), nil
	})
}

// DebugOptions configures the debug/stdout sink.
type DebugOptions struct {
	Writer io.Writer
}

// Debug writes each payload immediately, newline-terminated, per
// spec.md §4.5. It has nothing to batch, so Flush is a no-op.
type Debug struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewDebug(opts DebugOptions) *Debug {
	return &Debug{w: bufio.NewWriter(opts.Writer)}
}

func (d *Debug) Send(ctx context.Context, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(payload); err != nil {
		return err
	}
	if err := d.w.WriteByte('\n'); err != nil {
		return err
	}
	return d.w.Flush()
}

func (d *Debug) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w.Flush()
}

func (d *Debug) Close() error {
	return d.Flush(context.Background())
}
