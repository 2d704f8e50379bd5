package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
)

// Publisher writes a batch of events. *kafka.Producer[QueryEvent] satisfies
// it.
type Publisher interface {
	Publish(ctx context.Context, events ...QueryEvent) error
}

// Collector buffers query events and publishes them in batches, flushing
// when a batch fills up or the flush interval elapses. Track never blocks
// the request path: when the buffer is full the event is dropped.
type Collector struct {
	publisher     Publisher
	eventCh       chan QueryEvent
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(publisher Publisher, cfg config.AnalyticsConfig, m *metrics.Metrics) *Collector {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan QueryEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		metrics:       m,
		logger:        slog.Default().With("component", "analytics-collector"),
		cancel:        func() {},
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until ctx is cancelled or Close
// is called, then publishes whatever is still buffered.
func (c *Collector) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		ctx, c.cancel = context.WithCancel(ctx)
		go c.run(ctx)
		c.logger.Info("analytics collector started",
			"buffer_size", cap(c.eventCh),
			"batch_size", c.batchSize,
			"flush_interval", c.flushInterval,
		)
	})
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]QueryEvent, 0, c.batchSize)
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
		drain:
			for {
				select {
				case event := <-c.eventCh:
					batch = append(batch, event)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

// Track queues an event for publishing.
func (c *Collector) Track(event QueryEvent) {
	select {
	case c.eventCh <- event:
		c.count("queued", 1)
	default:
		c.count("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)", "event_id", event.ID)
	}
}

// Close stops the publish loop and waits for the final flush.
func (c *Collector) Close() {
	c.startOnce.Do(func() { close(c.done) })
	c.cancel()
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []QueryEvent) []QueryEvent {
	if len(batch) == 0 {
		return batch
	}
	if err := c.publisher.Publish(ctx, batch...); err != nil {
		c.count("failed", len(batch))
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
	} else {
		c.count("published", len(batch))
		c.logger.Debug("batch flushed", "events", len(batch))
	}
	return make([]QueryEvent, 0, c.batchSize)
}

func (c *Collector) count(status string, n int) {
	if c.metrics == nil {
		return
	}
	c.metrics.AnalyticsEventsTotal.WithLabelValues(status).Add(float64(n))
}
