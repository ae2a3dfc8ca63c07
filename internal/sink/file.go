package sink

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

func init() {
	Register("file", func(opts interface{}) (Sink, error) {
		o, ok := opts.(FileOptions)
		if !ok {
			return nil, fmt.Errorf("sink: file requires FileOptions")
		}
		return NewFile(o)
	})
}

// FileOptions configures the file sink.
type FileOptions struct {
	Path string
	// FlushEvery fsyncs after this many records; zero disables the
	// count-based boundary.
	FlushEvery int
	// FlushInterval fsyncs at least this often; zero disables the
	// time-based boundary.
	FlushInterval time.Duration
}

// File appends each payload to a path, fsyncing on a record-count or
// time boundary per spec.md §4.5 rather than on every write.
type File struct {
	opts FileOptions
	f    *os.File

	mu         sync.Mutex
	unsynced   int
	lastSynced time.Time
}

func NewFile(opts FileOptions) (*File, error) {
	f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("sink: open file %q: %w", opts.Path, err)
	}
	return &File{opts: opts, f: f, lastSynced: time.Now()}, nil
}

func (s *File) Send(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.f.Write(payload); err != nil {
		return err
	}
	if _, err := s.f.Write([]byte{'\n'}); err != nil {
		return err
	}
	s.unsynced++

	due := (s.opts.FlushEvery > 0 && s.unsynced >= s.opts.FlushEvery) ||
		(s.opts.FlushInterval > 0 && time.Since(s.lastSynced) >= s.opts.FlushInterval)
	if due {
		return s.syncLocked()
	}
	return nil
}

func (s *File) syncLocked() error {
	s.unsynced = 0
	s.lastSynced = time.Now()
	return s.f.Sync()
}

func (s *File) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

func (s *File) Close() error {
	if err := s.Flush(context.Background()); err != nil {
		return err
	}
	return s.f.Close()
}
