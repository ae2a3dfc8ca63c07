package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/rs/zerolog"
)

func init() {
	Register("kafka", func(opts interface{}) (Sink, error) {
		o, ok := opts.(KafkaOptions)
		if !ok {
			return nil, fmt.Errorf("sink: kafka requires KafkaOptions")
		}
		return NewKafka(o)
	})
}

// KafkaOptions configures the Kafka sink per spec.md §6's kafka_* keys.
type KafkaOptions struct {
	Brokers  []string
	Topic    string
	Coalesce int
	Timeout  time.Duration
	Acks     string // "0", "1", or "all"
	Logger   zerolog.Logger
}

func (o KafkaOptions) requiredAcks() kafka.RequiredAcks {
	switch o.Acks {
	case "0":
		return kafka.RequireNone
	case "all":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}

// messageWriter is the slice of *kafka.Writer this sink depends on.
// Narrowing it to an interface lets tests substitute a fake producer
// to exercise the retry-then-succeed path without a live broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is the C6 Kafka sink (spec.md §4.5): payloads are coalesced into
// a batch buffer and flushed as one produce call once the buffer
// reaches KafkaOptions.Coalesce. A failed produce is retried with
// exponential backoff bounded by KafkaOptions.Timeout; a batch that
// still fails after that is logged and dropped rather than blocking
// the pipeline indefinitely (spec.md §1 favors liveness over
// durability).
type Kafka struct {
	opts   KafkaOptions
	writer messageWriter

	mu    sync.Mutex
	batch [][]byte
}

func NewKafka(opts KafkaOptions) (*Kafka, error) {
	if opts.Coalesce <= 0 {
		opts.Coalesce = 1
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: opts.requiredAcks(),
		BatchSize:    opts.Coalesce,
		Async:        false,
	}
	return &Kafka{opts: opts, writer: w}, nil
}

func (k *Kafka) Send(ctx context.Context, payload []byte) error {
	k.mu.Lock()
	k.batch = append(k.batch, payload)
	full := len(k.batch) >= k.opts.Coalesce
	k.mu.Unlock()

	if full {
		return k.Flush(ctx)
	}
	return nil
}

func (k *Kafka) Flush(ctx context.Context) error {
	k.mu.Lock()
	batch := k.batch
	k.batch = nil
	k.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(batch))
	for i, p := range batch {
		msgs[i] = kafka.Message{Value: p, Time: time.Now()}
	}

	deadline := time.Now().Add(k.opts.Timeout)
	backoff := 10 * time.Millisecond
	var lastErr error
	for attempt := 1; time.Now().Before(deadline); attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, k.opts.Timeout)
		err := k.writer.WriteMessages(writeCtx, msgs...)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		k.opts.Logger.Warn().Err(err).Int("attempt", attempt).Msg("kafka produce failed, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	k.opts.Logger.Error().Err(lastErr).Int("batch_size", len(batch)).Msg("kafka produce exhausted retries, dropping batch")
	return nil
}

func (k *Kafka) Close() error {
	if err := k.Flush(context.Background()); err != nil {
		return err
	}
	return k.writer.Close()
}
