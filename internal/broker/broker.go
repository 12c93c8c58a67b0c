// Package broker provides the two named FIFO queues (jobs, builds) that
// connect the API tier to the worker tier.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yantra/internal/config"

	"github.com/go-redis/redis/v8"
)

// ErrEmpty signals that a non-blocking pop found no payload waiting.
var ErrEmpty = errors.New("broker: queue empty")

// Broker pushes and pops opaque byte payloads on named Redis lists.
type Broker struct {
	client     *redis.Client
	jobsQueue  string
	buildQueue string
}

// New connects to Redis using the given configuration. The connection is
// verified with a PING before returning.
func New(cfg config.RedisConfig) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &Broker{client: client, jobsQueue: cfg.JobsQueue, buildQueue: cfg.BuildQueue}, nil
}

// JobsQueue is the name of the queue submissions are pushed to.
func (b *Broker) JobsQueue() string { return b.jobsQueue }

// BuildQueue is the name of the queue build/cleanup actions are pushed to.
func (b *Broker) BuildQueue() string { return b.buildQueue }

// Push appends payload to the tail of queue, making it the most recent
// entry. Paired with Pop (RPOP) this gives FIFO delivery.
func (b *Broker) Push(ctx context.Context, queue string, payload []byte) error {
	return b.client.LPush(ctx, queue, payload).Err()
}

// Pop performs a non-blocking pop of the oldest payload in queue. It
// returns ErrEmpty, not an error wrapping redis.Nil, when the queue has no
// entries — callers should treat that as the expected "nothing to do" case.
func (b *Broker) Pop(ctx context.Context, queue string) ([]byte, error) {
	val, err := b.client.RPop(ctx, queue).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	return val, nil
}

// Len reports the current number of payloads waiting in queue, used by the
// metrics collector to report queue depth.
func (b *Broker) Len(ctx context.Context, queue string) (int, error) {
	n, err := b.client.LLen(ctx, queue).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Health pings the broker connection.
func (b *Broker) Health(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (b *Broker) Close() error {
	return b.client.Close()
}
