package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	attempts int
	failN    int
	delivered [][]byte
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failN {
		return errors.New("simulated broker error")
	}
	for _, m := range msgs {
		f.delivered = append(f.delivered, m.Value)
	}
	return nil
}

func (f *fakeWriter) Close() error { return nil }

// TestKafkaSink_RetriesThenSucceeds is spec.md §8 scenario 6: a Kafka
// produce that errors twice then succeeds results in exactly one
// delivery of the batch and exactly three attempts.
func TestKafkaSink_RetriesThenSucceeds(t *testing.T) {
	fw := &fakeWriter{failN: 2}
	k := &Kafka{
		opts: KafkaOptions{Coalesce: 2, Timeout: time.Second},
		writer: fw,
	}

	ctx := context.Background()
	require.NoError(t, k.Send(ctx, []byte("one")))
	require.NoError(t, k.Send(ctx, []byte("two")))

	fw.mu.Lock()
	attempts := fw.attempts
	delivered := len(fw.delivered)
	fw.mu.Unlock()

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, delivered)
}

func TestKafkaSink_DropsBatchAfterTimeoutExhausted(t *testing.T) {
	fw := &fakeWriter{failN: 1000}
	k := &Kafka{
		opts: KafkaOptions{Coalesce: 1, Timeout: 30 * time.Millisecond},
		writer: fw,
	}

	err := k.Send(context.Background(), []byte("doomed"))
	assert.NoError(t, err) // dropped, not surfaced as an error to the caller

	fw.mu.Lock()
	delivered := len(fw.delivered)
	fw.mu.Unlock()
	assert.Equal(t, 0, delivered)
}

func TestKafkaSink_CoalescesBeforeFlushing(t *testing.T) {
	fw := &fakeWriter{}
	k := &Kafka{
		opts: KafkaOptions{Coalesce: 3, Timeout: time.Second},
		writer: fw,
	}
	ctx := context.Background()
	require.NoError(t, k.Send(ctx, []byte("a")))
	require.NoError(t, k.Send(ctx, []byte("b")))

	fw.mu.Lock()
	assert.Equal(t, 0, fw.attempts)
	fw.mu.Unlock()

	require.NoError(t, k.Send(ctx, []byte("c")))
	fw.mu.Lock()
	assert.Equal(t, 1, fw.attempts)
	assert.Equal(t, 3, len(fw.delivered))
	fw.mu.Unlock()
}
