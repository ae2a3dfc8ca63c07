package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisInput implements spec.md §4.6's reliable-queue input: each of
// RedisThreads workers loops BRPOPLPUSH-ing from QueueKey into its own
// temp list, decodes, enqueues to the broker, then LREMs the item from
// the temp list. An unacknowledged item (worker crashes between the
// BRPOPLPUSH and the LREM) is recovered from the temp list on restart.
type RedisInput struct {
	Addr       string
	QueueKey   string
	Threads    int
	NewDecoder func() Pipeline
}

func (r *RedisInput) Serve(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{Addr: r.Addr})
	defer client.Close()

	threads := r.Threads
	if threads <= 0 {
		threads = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.runWorker(ctx, client, worker)
		}(i)
	}
	wg.Wait()
	return nil
}

func (r *RedisInput) runWorker(ctx context.Context, client *redis.Client, worker int) {
	p := r.NewDecoder()
	tempKey := fmt.Sprintf("%s.tmp.%d", r.QueueKey, worker)

	// Recover any item left behind by a crash between BRPopLPush and
	// LRem on a previous run.
	for {
		item, err := client.RPop(ctx, tempKey).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			p.Logger.Error().Err(err).Msg("redis: recovery RPop failed")
			break
		}
		if herr := p.HandleDatagram(ctx, []byte(item)); herr != nil {
			p.Logger.Warn().Err(herr).Msg("redis: failed to process recovered item")
		}
	}

	for {
		item, err := client.BRPopLPush(ctx, r.QueueKey, tempKey, 5*time.Second).Result()
		if errors.Is(err, redis.Nil) {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			p.Logger.Error().Err(err).Msg("redis: BRPopLPush failed")
			time.Sleep(time.Second)
			continue
		}

		if herr := p.HandleDatagram(ctx, []byte(item)); herr != nil {
			p.Logger.Warn().Err(herr).Msg("redis: failed to process item")
		}
		if err := client.LRem(ctx, tempKey, 1, item).Err(); err != nil {
			p.Logger.Error().Err(err).Msg("redis: LRem failed")
		}
	}
}
