package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/awslabs/flowgger/internal/broker"
	"github.com/awslabs/flowgger/internal/config"
	"github.com/awslabs/flowgger/internal/decoder"
	"github.com/awslabs/flowgger/internal/encoder"
	"github.com/awslabs/flowgger/internal/framing"
	"github.com/awslabs/flowgger/internal/health"
	"github.com/awslabs/flowgger/internal/input"
	"github.com/awslabs/flowgger/internal/record"
	"github.com/awslabs/flowgger/internal/sink"
)

func ltsvTypes(m map[string]string) map[string]decoder.ValueType {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]decoder.ValueType, len(m))
	for k, v := range m {
		out[k] = decoder.ValueType(v)
	}
	return out
}

func ltsvSuffixes(m map[string]string) map[decoder.ValueType]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[decoder.ValueType]string, len(m))
	for k, v := range m {
		out[decoder.ValueType(k)] = v
	}
	return out
}

func gelfExtraPairs(m map[string]string) []record.Pair {
	if len(m) == 0 {
		return nil
	}
	pairs := make([]record.Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, record.Pair{Key: k, Value: record.StringValue(v)})
	}
	return pairs
}

func newPipeline(cfg *config.Config, b *broker.Broker, monitor *health.Monitor, logger zerolog.Logger) (input.Pipeline, error) {
	dec, err := decoder.New(cfg.Input.Format, decoder.Schema{
		Types:    ltsvTypes(cfg.Input.LTSVSchema),
		Suffixes: ltsvSuffixes(cfg.Input.LTSVSuffixes),
	})
	if err != nil {
		return input.Pipeline{}, err
	}
	enc, err := encoder.New(cfg.Output.Format, encoder.Options{Extra: gelfExtraPairs(cfg.Output.GELFExtra)})
	if err != nil {
		return input.Pipeline{}, err
	}
	return input.Pipeline{
		Decoder:  dec,
		Encoder:  enc,
		Broker:   b,
		Logger:   logger,
		Counters: monitor,
	}, nil
}

func serveInput(ctx context.Context, cfg *config.Config, b *broker.Broker, monitor *health.Monitor, logger zerolog.Logger) error {
	newPipe := func() input.Pipeline {
		p, err := newPipeline(cfg, b, monitor, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build decode/encode pipeline")
		}
		return p
	}

	timeout := time.Duration(cfg.Input.Timeout) * time.Second

	switch cfg.Input.Type {
	case "tcp":
		l := &input.TCPListener{Addr: cfg.Input.Listen, Framing: framing.Policy(cfg.Input.Framing), Timeout: timeout, NewDecoder: newPipe}
		return l.Serve(ctx)
	case "tls":
		tlsCfg := &input.TLSConfig{
			CertFile:   cfg.Input.TLSCert,
			KeyFile:    cfg.Input.TLSKey,
			CAFile:     cfg.Input.TLSCAFile,
			VerifyPeer: cfg.Input.TLSVerifyPeer,
		}
		l := &input.TCPListener{Addr: cfg.Input.Listen, TLS: tlsCfg, Framing: framing.Policy(cfg.Input.Framing), Timeout: timeout, NewDecoder: newPipe}
		return l.Serve(ctx)
	case "tls_co":
		tlsCfg := &input.TLSConfig{
			CertFile:   cfg.Input.TLSCert,
			KeyFile:    cfg.Input.TLSKey,
			CAFile:     cfg.Input.TLSCAFile,
			VerifyPeer: cfg.Input.TLSVerifyPeer,
		}
		l := &input.CooperativeListener{Addr: cfg.Input.Listen, TLS: tlsCfg, Framing: framing.Policy(cfg.Input.Framing), NewDecoder: newPipe}
		return l.Serve(ctx)
	case "udp":
		l := &input.UDPListener{Addr: cfg.Input.Listen, NewDecoder: newPipe}
		return l.Serve(ctx)
	case "redis":
		r := &input.RedisInput{Addr: cfg.Input.RedisConnect, QueueKey: cfg.Input.RedisQueueKey, Threads: cfg.Input.RedisThreads, NewDecoder: newPipe}
		return r.Serve(ctx)
	case "stdin":
		s := &input.StdinInput{Reader: os.Stdin, Framing: framing.Policy(cfg.Input.Framing), NewDecoder: newPipe}
		return s.Serve(ctx)
	default:
		return fmt.Errorf("wiring: unknown input type %q", cfg.Input.Type)
	}
}

func buildSink(cfg *config.Config, logger zerolog.Logger) (sink.Sink, error) {
	switch cfg.Output.Type {
	case "kafka":
		return sink.New("kafka", sink.KafkaOptions{
			Brokers:  cfg.Output.KafkaBrokers,
			Topic:    cfg.Output.KafkaTopic,
			Coalesce: cfg.Output.KafkaCoalesce,
			Timeout:  time.Duration(cfg.Output.KafkaTimeout) * time.Millisecond,
			Acks:     cfg.Output.KafkaAcks,
			Logger:   logger,
		})
	case "debug":
		return sink.New("debug", sink.DebugOptions{Writer: os.Stdout})
	case "file":
		return sink.New("file", sink.FileOptions{Path: cfg.Output.FilePath, FlushEvery: 100, FlushInterval: time.Second})
	case "nats":
		return sink.New("nats", sink.NATSOptions{URL: cfg.Output.NATSURL, Subject: cfg.Output.NATSSubject})
	case "tls":
		// spec.md §6: default framing for tcp/tls is line; the output
		// section has no separate framing key of its own. No TLSConfig
		// is passed, so the downstream connection is plain TCP.
		return sink.New("tls", sink.DownstreamOptions{Addr: cfg.Output.TLSAddr, Framing: framing.Line})
	default:
		return nil, fmt.Errorf("wiring: unknown output type %q", cfg.Output.Type)
	}
}
