// Package decoder turns payload bytes from one configured input format into
// a record.Record, or fails the record with a DecodeError.
package decoder

import (
	"fmt"

	"github.com/awslabs/flowgger/internal/record"
)

// DecodeError reports a malformed payload: invalid UTF-8, a missing
// required field, a type mismatch against an LTSV schema, or a JSON parse
// failure (spec.md §7, taxonomy item 2).
type DecodeError struct {
	Format string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode(%s): %s", e.Format, e.Reason)
}

func newDecodeError(format, reason string) *DecodeError {
	return &DecodeError{Format: format, Reason: reason}
}

// Decoder maps one payload to one Record. Implementations never return a
// Record that violates record.Record's invariants — Decode calls
// Record.Validate internally and turns a validation failure into a
// DecodeError.
type Decoder interface {
	Decode(payload []byte) (*record.Record, error)
}

// Factory builds a configured Decoder instance for a format.
type Factory func(schema Schema) (Decoder, error)

// Schema carries the optional LTSV type schema and suffix-rewrite map; other
// formats ignore it.
type Schema struct {
	Types    map[string]ValueType
	Suffixes map[ValueType]string
}

// ValueType names an LTSV schema's declared scalar type.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeBool   ValueType = "bool"
	TypeF64    ValueType = "f64"
	TypeI64    ValueType = "i64"
	TypeU64    ValueType = "u64"
)

var registry = map[string]Factory{}

// Register adds a named decoder factory. Grounded on the teacher's
// map[string]func()-Adapter registry (pkg/anchor/adapter/registry.go).
func Register(name string, f Factory) {
	registry[name] = f
}

// New looks up a registered decoder factory by format name.
func New(format string, schema Schema) (Decoder, error) {
	f, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("decoder: unknown format %q", format)
	}
	return f(schema)
}

func init() {
	Register("rfc5424", func(Schema) (Decoder, error) { return &RFC5424Decoder{}, nil })
	Register("gelf", func(Schema) (Decoder, error) { return &GELFDecoder{}, nil })
	Register("ltsv", func(s Schema) (Decoder, error) { return NewLTSVDecoder(s), nil })
	Register("capnp", func(Schema) (Decoder, error) { return &CapnpDecoder{}, nil })
}
