package framing

import (
	"fmt"
	"io"
)

// WriteFrame writes payload to w framed per policy — the inverse of what
// a Splitter for that policy parses. Used by sinks that speak the same
// wire protocol as an input transport (the downstream-Flowgger sink).
func WriteFrame(w io.Writer, policy Policy, payload []byte) error {
	switch policy {
	case Line:
		if _, err := w.Write(payload); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	case Nul:
		if _, err := w.Write(payload); err != nil {
			return err
		}
		_, err := w.Write([]byte{0x00})
		return err
	case SysLen:
		header := fmt.Sprintf("%d ", len(payload))
		if _, err := w.Write([]byte(header)); err != nil {
			return err
		}
		_, err := w.Write(payload)
		return err
	case Capnp:
		// payload is already a marshaled Cap'n Proto message, which is
		// self-framing; write it as-is.
		_, err := w.Write(payload)
		return err
	default:
		return fmt.Errorf("framing: unknown policy %s", policy)
	}
}
