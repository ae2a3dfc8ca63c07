package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDaemon_RunStopsAllWorkersOnContextCancel(t *testing.T) {
	d := New(zerolog.Nop(), time.Second)

	started := make(chan struct{}, 2)
	stopped := make(chan struct{}, 2)
	worker := func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		stopped <- struct{}{}
	}
	d.Spawn(worker)
	d.Spawn(worker)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		<-started
		cancel()
	}()

	err := d.Run(ctx)
	assert.NoError(t, err)
	assert.Len(t, stopped, 2)
}

func TestDaemon_RunReturnsAfterGracePeriodIfWorkerHangs(t *testing.T) {
	d := New(zerolog.Nop(), 20*time.Millisecond)

	d.Spawn(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(time.Hour) // simulate a worker that ignores cancellation
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := d.Run(ctx)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDaemon_DefaultsGracePeriodWhenNonPositive(t *testing.T) {
	d := New(zerolog.Nop(), 0)
	assert.Equal(t, 30*time.Second, d.gracePeriod)
}
