// Package sink implements the output adapters described in spec.md §4.5:
// each one consumes encoded payload bytes off the broker and delivers
// them to an external destination, batching and retrying where the
// destination calls for it.
package sink

import "context"

// Sink delivers an already-encoded payload somewhere. Implementations
// may buffer internally (see Kafka) but must guarantee Flush drains
// any such buffer.
type Sink interface {
	// Send hands one payload to the sink. It may return before the
	// payload has actually reached the destination if the sink
	// batches internally.
	Send(ctx context.Context, payload []byte) error

	// Flush blocks until any buffered payloads have been delivered
	// or permanently dropped.
	Flush(ctx context.Context) error

	// Close releases the sink's resources. Implementations should
	// Flush internally before closing.
	Close() error
}

// Factory builds a Sink from an already-validated configuration value.
// Each concrete sink defines its own options type; Factory is kept
// generic so the registry can be driven purely by name.
type Factory func(opts interface{}) (Sink, error)

var registry = map[string]Factory{}

// Register adds a sink factory under name. Called from each sink
// file's init().
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds the sink registered under name.
func New(name string, opts interface{}) (Sink, error) {
	f, ok := registry[name]
	if !ok {
		return nil, &UnknownSinkError{Name: name}
	}
	return f(opts)
}

// UnknownSinkError is returned by New for an unregistered sink name.
type UnknownSinkError struct {
	Name string
}

func (e *UnknownSinkError) Error() string {
	return "sink: unknown type " + e.Name
}
