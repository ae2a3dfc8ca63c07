// Package daemon owns process-level lifecycle: signal handling,
// coordinated shutdown of the running goroutines, and a bounded grace
// period for in-flight work to drain. Adapted from the
// signal-wait/graceful-shutdown shape of this codebase's service
// runner, stripped of its supervisor registration and gRPC server
// machinery — Flowgger is a single standalone process (spec.md §6 CLI).
package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Worker is a long-running goroutine body that must return when ctx is
// cancelled.
type Worker func(ctx context.Context)

// Daemon runs a set of Workers under one cancellation context and
// performs a bounded-grace-period shutdown on SIGINT/SIGTERM (spec.md
// §5 "cancellation and shutdown").
type Daemon struct {
	logger      zerolog.Logger
	gracePeriod time.Duration

	mu      sync.Mutex
	workers []Worker
}

func New(logger zerolog.Logger, gracePeriod time.Duration) *Daemon {
	if gracePeriod <= 0 {
		gracePeriod = 30 * time.Second
	}
	return &Daemon{logger: logger, gracePeriod: gracePeriod}
}

// Spawn registers a worker to run once Run is called. Call before Run.
func (d *Daemon) Spawn(w Worker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers = append(d.workers, w)
}

// Run starts every spawned worker, blocks until SIGINT/SIGTERM or ctx
// is cancelled, then cancels the workers' context and waits up to
// gracePeriod for them to return before giving up.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	workers := d.workers
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w(runCtx)
		}(w)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info().Stringer("signal", sig.(syscall.Signal)).Msg("received shutdown signal")
	case <-ctx.Done():
		d.logger.Info().Msg("context cancelled")
	}

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("all workers stopped cleanly")
		return nil
	case <-time.After(d.gracePeriod):
		d.logger.Warn().Dur("grace_period", d.gracePeriod).Msg("grace period exceeded, exiting with workers still running")
		return nil
	}
}
