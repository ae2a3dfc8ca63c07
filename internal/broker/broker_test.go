package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
	_, err = New(-1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestPutGet_FIFO(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Put(ctx, []byte{byte(i)}))
	}
	assert.Equal(t, 4, b.Len())

	for i := 0; i < 4; i++ {
		got, err := b.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, byte(i), got[0])
	}
}

// TestPut_BlocksWhenFull exercises the backpressure invariant from
// spec.md §8: a full queue blocks producers until a consumer drains it.
func TestPut_BlocksWhenFull(t *testing.T) {
	b, err := New(1)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, []byte("first")))

	putDone := make(chan struct{})
	go func() {
		_ = b.Put(ctx, []byte("second"))
		close(putDone)
	}()

	select {
	case <-putDone:
		t.Fatal("Put on a full queue returned before a slot was freed")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = b.Get(ctx)
	require.NoError(t, err)

	select {
	case <-putDone:
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after queue space freed")
	}
}

func TestPut_CancelledContext(t *testing.T) {
	b, err := New(1)
	require.NoError(t, err)
	require.NoError(t, b.Put(context.Background(), []byte("fill")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = b.Put(ctx, []byte("blocked"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentProducersConsumers(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = b.Put(ctx, []byte{byte(i % 256)})
		}
	}()

	received := 0
	for received < n {
		_, err := b.Get(ctx)
		require.NoError(t, err)
		received++
	}
	wg.Wait()
	assert.Equal(t, n, received)
}
