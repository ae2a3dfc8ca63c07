package framing

import (
	"bytes"
	"errors"
	"io"
)

// sysLenSplitter implements the SysLen framing policy: ASCII decimal length,
// then SP, then that many bytes. An LF encountered before the declared count
// is satisfied resynchronizes the parser at the byte after the LF and
// reports the in-progress frame as a framing error (spec.md §4.1, §9 open
// question: resync is per-frame, never connection-wide).
type sysLenSplitter struct {
	buf      *readBuffer
	maxFrame int
}

func newSysLenSplitter(r io.Reader, maxFrame int) *sysLenSplitter {
	return &sysLenSplitter{buf: newReadBuffer(r), maxFrame: maxFrame}
}

var (
	errNeedMore = errors.New("framing: need more data")
	errCorrupt  = errors.New("framing: corrupt length prefix")
)

func (s *sysLenSplitter) Next() ([]byte, error) {
	for {
		n, headerLen, perr := s.parseLength()
		switch perr {
		case errNeedMore:
			if err := s.buf.fill(); err == io.EOF {
				if len(s.buf.pending()) == 0 {
					return nil, io.EOF
				}
				s.buf.advance(len(s.buf.pending()))
				return nil, ErrFraming
			} else if err != nil {
				return nil, err
			}
			continue
		case errCorrupt:
			if s.discardToLF() {
				return nil, ErrFraming
			}
			if err := s.buf.fill(); err == io.EOF {
				s.buf.advance(len(s.buf.pending()))
				return nil, ErrFraming
			} else if err != nil {
				return nil, err
			}
			continue
		}

		for {
			pending := s.buf.pending()
			avail := len(pending) - headerLen
			limit := avail
			if limit > n {
				limit = n
			}
			if limit > 0 {
				if idx := bytes.IndexByte(pending[headerLen:headerLen+limit], '\n'); idx >= 0 {
					s.buf.advance(headerLen + idx + 1)
					return nil, ErrFraming
				}
			}
			if avail >= n {
				payload := make([]byte, n)
				copy(payload, pending[headerLen:headerLen+n])
				s.buf.advance(headerLen + n)
				return payload, nil
			}
			err := s.buf.fill()
			if err == io.EOF {
				s.buf.advance(len(s.buf.pending()))
				return nil, ErrFraming
			}
			if err != nil {
				return nil, err
			}
		}
	}
}

// parseLength scans the buffered prefix for "<digits> ". It returns
// errNeedMore when the buffer might still grow into a valid header, and
// errCorrupt when the bytes seen so far can never form one.
func (s *sysLenSplitter) parseLength() (n int, headerLen int, err error) {
	pending := s.buf.pending()
	i := 0
	for i < len(pending) && pending[i] >= '0' && pending[i] <= '9' {
		i++
	}
	if i == 0 {
		if len(pending) == 0 {
			return 0, 0, errNeedMore
		}
		return 0, 0, errCorrupt
	}
	if i > 7 {
		return 0, 0, errCorrupt
	}
	if i >= len(pending) {
		return 0, 0, errNeedMore
	}
	if pending[i] != ' ' {
		return 0, 0, errCorrupt
	}
	length := 0
	for _, c := range pending[:i] {
		length = length*10 + int(c-'0')
	}
	if length > s.maxFrame {
		return 0, 0, errCorrupt
	}
	return length, i + 1, nil
}

// discardToLF drops buffered bytes up to and including the next LF. Returns
// false if no LF is buffered yet (caller should fill and retry).
func (s *sysLenSplitter) discardToLF() bool {
	pending := s.buf.pending()
	if idx := bytes.IndexByte(pending, '\n'); idx >= 0 {
		s.buf.advance(idx + 1)
		return true
	}
	s.buf.advance(len(pending))
	return false
}
