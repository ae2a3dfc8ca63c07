// Package framing carves a byte stream from a long-lived connection into
// discrete record payloads according to a configured framing policy.
package framing

import (
	"errors"
	"io"
)

// Policy selects how payload boundaries are recognized on the wire.
type Policy string

const (
	Line  Policy = "line"
	Nul   Policy = "nul"
	SysLen Policy = "syslen"
	Capnp Policy = "capnp"
)

// ErrFraming is returned for a malformed frame: the connection stays open,
// the caller logs at warning and continues unless two occur back to back.
var ErrFraming = errors.New("framing: malformed frame")

// DefaultMaxSysLenFrame bounds a SysLen-declared length; payloads claiming to
// be longer are rejected as framing errors.
const DefaultMaxSysLenFrame = 65536

// Splitter turns a byte-oriented source into a sequence of payloads, one per
// record as seen on the wire. Next returns io.EOF once the source is
// exhausted and no more payloads remain.
type Splitter interface {
	// Next returns the next payload. A framing error is returned alongside
	// a nil payload; the caller may call Next again to resynchronize. Two
	// consecutive framing errors is the caller's signal to close the
	// connection (spec.md §4.1 / §7).
	Next() ([]byte, error)
}

// New builds a Splitter for the given policy reading from r, with maxFrame
// bounding SysLen payload length (0 selects DefaultMaxSysLenFrame).
func New(policy Policy, r io.Reader, maxFrame int) (Splitter, error) {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxSysLenFrame
	}
	switch policy {
	case Line:
		return newDelimSplitter(r, '\n', true), nil
	case Nul:
		return newDelimSplitter(r, 0x00, false), nil
	case SysLen:
		return newSysLenSplitter(r, maxFrame), nil
	case Capnp:
		return newCapnpSplitter(r), nil
	default:
		return nil, errors.New("framing: unknown policy " + string(policy))
	}
}
