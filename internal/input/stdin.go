package input

import (
	"context"
	"io"

	"github.com/awslabs/flowgger/internal/framing"
)

// StdinInput treats stdin as the single "connection" from spec.md
// §4.6, running the configured framing policy over it.
type StdinInput struct {
	Reader     io.Reader
	Framing    framing.Policy
	NewDecoder func() Pipeline
}

func (s *StdinInput) Serve(ctx context.Context) error {
	p := s.NewDecoder()
	sp, err := framing.New(s.Framing, s.Reader, 0)
	if err != nil {
		return err
	}
	return p.RunSplitter(ctx, sp)
}
