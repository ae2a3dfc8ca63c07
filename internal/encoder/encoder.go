// Package encoder turns a record.Record into payload bytes for one
// configured output format.
package encoder

import (
	"fmt"

	"github.com/awslabs/flowgger/internal/record"
)

// Encoder serializes a Record into one payload. Options.NulTerminate
// selects whether the payload gets a trailing NUL (spec.md §4.3, GELF
// over Nul framing).
type Encoder interface {
	Encode(r *record.Record) ([]byte, error)
}

// Options configures an Encoder: extra static key/value pairs merged into
// every encoded record (GELF "extra", overriding same-named event pairs),
// and whether payloads should be NUL-terminated for Nul-framed transports.
type Options struct {
	Extra        []record.Pair
	NulTerminate bool
}

// Factory builds a configured Encoder instance for a format.
type Factory func(opts Options) (Encoder, error)

var registry = map[string]Factory{}

// Register adds a named encoder factory, mirroring decoder.Register.
func Register(name string, f Factory) {
	registry[name] = f
}

// New looks up a registered encoder factory by format name.
func New(format string, opts Options) (Encoder, error) {
	f, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("encoder: unknown format %q", format)
	}
	return f(opts)
}

func init() {
	Register("gelf", func(o Options) (Encoder, error) { return &GELFEncoder{opts: o}, nil })
	Register("rfc5424", func(o Options) (Encoder, error) { return &RFC5424Encoder{opts: o}, nil })
	Register("ltsv", func(o Options) (Encoder, error) { return &LTSVEncoder{opts: o}, nil })
	Register("capnp", func(o Options) (Encoder, error) { return &CapnpEncoder{opts: o}, nil })
}

// mergeExtra returns the record's own pairs followed by the configured
// extra pairs. A record pair whose key matches an extra key is left out,
// so the extra value overrides it; the original record is not mutated.
func mergeExtra(pairs []record.Pair, extra []record.Pair) []record.Pair {
	if len(extra) == 0 {
		return pairs
	}
	overridden := make(map[string]bool, len(extra))
	for _, e := range extra {
		overridden[e.Key] = true
	}
	out := make([]record.Pair, 0, len(pairs)+len(extra))
	for _, p := range pairs {
		if !overridden[p.Key] {
			out = append(out, p)
		}
	}
	out = append(out, extra...)
	return out
}
