// Command flowgger runs the log-collection daemon: flowgger <config-path>.
// Exit 0 on clean shutdown; non-zero on startup error (spec.md §6).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/awslabs/flowgger/internal/broker"
	"github.com/awslabs/flowgger/internal/config"
	"github.com/awslabs/flowgger/internal/daemon"
	"github.com/awslabs/flowgger/internal/health"
	"github.com/awslabs/flowgger/internal/logging"
	"github.com/awslabs/flowgger/internal/sink"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: flowgger <config-path>")
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, "flowgger")

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	b, err := broker.New(cfg.Input.QueueSize)
	if err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	monitor := health.NewMonitor(b, logger)

	d := daemon.New(logger, 30*time.Second)

	d.Spawn(func(ctx context.Context) {
		if err := serveInput(ctx, cfg, b, monitor, logger); err != nil {
			logger.Error().Err(err).Msg("input driver stopped")
		}
	})

	threads := 1
	if cfg.Output.Type == "kafka" && cfg.Output.KafkaThreads > 0 {
		threads = cfg.Output.KafkaThreads
	}
	// Each sink worker owns its own Sink instance (its own batch
	// buffer, in the Kafka case) per spec.md §4.5 "per-worker batch
	// buffer"; workers never share one sink's internal state.
	for i := 0; i < threads; i++ {
		snk, err := buildSink(cfg, logger)
		if err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		d.Spawn(func(ctx context.Context) {
			runSinkWorker(ctx, b, snk, monitor, logger)
		})
	}

	d.Spawn(func(ctx context.Context) {
		monitor.RunPeriodicLog(ctx.Done(), 30*time.Second)
	})

	return d.Run(context.Background())
}

func runSinkWorker(ctx context.Context, b *broker.Broker, snk sink.Sink, monitor *health.Monitor, logger zerolog.Logger) {
	defer snk.Close()
	for {
		payload, err := b.Get(ctx)
		if err != nil {
			_ = snk.Flush(context.Background())
			return
		}
		if err := snk.Send(ctx, payload); err != nil {
			monitor.SinkError()
			logger.Error().Err(err).Msg("sink send failed")
		}
	}
}
