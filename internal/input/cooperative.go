package input

import (
	"context"
	"crypto/tls"
	"net"

	"golang.org/x/sync/semaphore"

	"github.com/awslabs/flowgger/internal/framing"
)

// CooperativeListener is the "tls_co" scheduling variant from spec.md
// §4.6: a fixed pool of workers multiplexes many connections instead
// of dedicating one goroutine's lifetime to owning a core per
// connection. It is meant for connection counts that vastly exceed
// available cores; per-connection inactivity timeouts are not honored
// in this mode (no deadlineReader is installed), matching spec.md §5.
//
// Go's runtime already multiplexes goroutines onto OS threads, so the
// pool here bounds how many connections are actively being parsed at
// once via a weighted semaphore — acquiring a pool slot is this mode's
// cooperative-yield point, mirroring what an explicit coroutine
// scheduler would do at the same point in the original design.
type CooperativeListener struct {
	Addr       string
	TLS        *TLSConfig
	Framing    framing.Policy
	PoolSize   int64
	NewDecoder func() Pipeline
}

func (l *CooperativeListener) Serve(ctx context.Context) error {
	poolSize := l.PoolSize
	if poolSize <= 0 {
		poolSize = 64
	}
	sem := semaphore.NewWeighted(poolSize)

	var ln net.Listener
	var err error
	if l.TLS != nil {
		tlsCfg, berr := l.TLS.build()
		if berr != nil {
			return berr
		}
		ln, err = tls.Listen("tcp", l.Addr, tlsCfg)
	} else {
		ln, err = net.Listen("tcp", l.Addr)
	}
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			continue
		}
		go func() {
			defer sem.Release(1)
			defer conn.Close()

			p := l.NewDecoder()
			sp, err := framing.New(l.Framing, conn, 0)
			if err != nil {
				p.Logger.Error().Err(err).Msg("failed to build splitter")
				return
			}
			if err := p.RunSplitter(ctx, sp); err != nil {
				p.Logger.Debug().Err(err).Msg("connection closed")
			}
		}()
	}
}
