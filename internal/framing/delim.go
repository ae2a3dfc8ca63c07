package framing

import (
	"bytes"
	"io"
)

// delimSplitter implements the Line and Nul framing policies: scan the
// buffered bytes for delim, slice out everything before it as one payload.
// A non-empty partial frame at EOF is yielded once, per spec.md §4.1.
type delimSplitter struct {
	buf        *readBuffer
	delim      byte
	trimCR     bool
	yieldedEOF bool
}

func newDelimSplitter(r io.Reader, delim byte, trimCR bool) *delimSplitter {
	return &delimSplitter{buf: newReadBuffer(r), delim: delim, trimCR: trimCR}
}

func (s *delimSplitter) Next() ([]byte, error) {
	for {
		pending := s.buf.pending()
		if i := bytes.IndexByte(pending, s.delim); i >= 0 {
			payload := pending[:i]
			if s.trimCR && len(payload) > 0 && payload[len(payload)-1] == '\r' {
				payload = payload[:len(payload)-1]
			}
			out := make([]byte, len(payload))
			copy(out, payload)
			s.buf.advance(i + 1)
			return out, nil
		}

		err := s.buf.fill()
		if err == io.EOF {
			if s.yieldedEOF {
				return nil, io.EOF
			}
			s.yieldedEOF = true
			remaining := s.buf.pending()
			if len(remaining) == 0 {
				return nil, io.EOF
			}
			out := make([]byte, len(remaining))
			copy(out, remaining)
			s.buf.advance(len(remaining))
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
