package metrics

import (
	"context"
	"time"

	"yantra/internal/logging"

	"go.uber.org/zap"
)

// statsSource is satisfied by *store.Store. Declared here rather than
// imported so this package stays a leaf metrics.RecordDBQuery callers (the
// store package itself) can depend on, instead of the other way around.
type statsSource interface {
	Stats() map[string]interface{}
}

// queueSource is satisfied by *broker.Broker, for the same reason.
type queueSource interface {
	JobsQueue() string
	BuildQueue() string
	Len(ctx context.Context, queue string) (int, error)
}

// PoolCollector periodically samples the store's connection pool and the
// broker's queue depths into gauges, the way a long-running API or worker
// process reports its own saturation.
type PoolCollector struct {
	store    statsSource
	broker   queueSource
	metrics  *Metrics
	interval time.Duration
}

// NewPoolCollector creates a collector sampling every interval.
func NewPoolCollector(st statsSource, br queueSource, interval time.Duration) *PoolCollector {
	return &PoolCollector{store: st, broker: br, metrics: Get(), interval: interval}
}

// Start runs the collector until ctx is cancelled.
func (c *PoolCollector) Start(ctx context.Context) {
	go func() {
		c.collectOnce(ctx)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.collectOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *PoolCollector) collectOnce(ctx context.Context) {
	stats := c.store.Stats()
	if inUse, ok := stats["in_use"].(int); ok {
		c.metrics.DBConnectionsActive.Set(float64(inUse))
	}
	if idle, ok := stats["idle"].(int); ok {
		c.metrics.DBConnectionsIdle.Set(float64(idle))
	}

	for _, queue := range []string{c.broker.JobsQueue(), c.broker.BuildQueue()} {
		depth, err := c.broker.Len(ctx, queue)
		if err != nil {
			logging.L().Warn("queue depth sample failed", zap.String("queue", queue), zap.Error(err))
			continue
		}
		c.metrics.SetQueueDepth(queue, depth)
	}
}
