package framing

import (
	"io"

	"capnproto.org/go/capnp/v3"
)

// capnpSplitter implements the Capnp framing policy: each payload is one
// length-prefixed Cap'n Proto message as defined by the standard Cap'n Proto
// stream framing (segment count + sizes, then segment data). We let the
// capnp library itself recognize message boundaries and re-marshal the
// decoded message back to its canonical bytes, which downstream decoders
// re-parse — this keeps the framing layer from having to reimplement the
// segment-table format.
type capnpSplitter struct {
	dec *capnp.Decoder
}

func newCapnpSplitter(r io.Reader) *capnpSplitter {
	return &capnpSplitter{dec: capnp.NewDecoder(r)}
}

func (s *capnpSplitter) Next() ([]byte, error) {
	msg, err := s.dec.Decode()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, ErrFraming
	}
	data, err := msg.Marshal()
	if err != nil {
		return nil, ErrFraming
	}
	return data, nil
}
