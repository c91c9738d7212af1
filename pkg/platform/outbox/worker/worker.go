package worker

import (
	"context"
	"log/slog"
	"time"

	"clubid/internal/platform/kafka/producer"
	"clubid/pkg/platform/outbox"
	"clubid/pkg/platform/outbox/metrics"
	"clubid/pkg/platform/tx"
)

// Publisher sends one message to the broker.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox and publishes pending entries to Kafka. Each batch
// is fetched, published and marked inside one transaction so concurrent
// workers skip rows another worker holds.
type Worker struct {
	store        outbox.Store
	publisher    Publisher
	tx           tx.Runner
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) { w.topic = topic }
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention deletes processed entries older than d after each poll. Zero keeps everything.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) { w.retention = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func New(store outbox.Store, publisher Publisher, runner tx.Runner, opts ...Option) *Worker {
	w := &Worker{
		store:        store,
		publisher:    publisher,
		tx:           runner,
		topic:        "clubid.notifications",
		batchSize:    100,
		pollInterval: 200 * time.Millisecond,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled, then drains what is left with a short
// deadline. It always returns nil so it can sit in an errgroup.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("outbox poll failed", "error", err)
			}
			w.housekeeping(ctx)
		}
	}
}

// ProcessBatch publishes one batch and returns how many entries were marked.
// An entry whose publish fails stays pending and is retried next poll.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, err := w.store.FetchUnprocessed(txCtx, w.batchSize)
		if err != nil {
			w.metrics.IncPublishFailures()
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		w.metrics.ObserveBatchSize(len(entries))

		for _, entry := range entries {
			if err := w.publish(txCtx, entry); err != nil {
				w.logger.Error("failed to publish outbox entry",
					"id", entry.ID,
					"event_type", entry.EventType,
					"error", err,
				)
				w.metrics.IncPublishFailures()
				continue
			}
			if err := w.store.MarkProcessed(txCtx, entry.ID, w.now()); err != nil {
				// Published but unmarked entries are re-sent; consumers dedupe on the key.
				w.logger.Error("failed to mark outbox entry processed", "id", entry.ID, "error", err)
				continue
			}
			w.metrics.IncPublished()
			published++
		}
		return nil
	})
	return published, err
}

func (w *Worker) publish(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	}
	if err := w.publisher.Produce(ctx, msg); err != nil {
		return err
	}
	w.metrics.ObservePublishDuration(time.Since(start).Seconds())
	return nil
}

func (w *Worker) housekeeping(ctx context.Context) {
	if n, err := w.store.CountPending(ctx); err == nil {
		w.metrics.SetPendingDepth(n)
	}
	if w.retention <= 0 {
		return
	}
	if _, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention)); err != nil {
		w.logger.Warn("failed to prune processed outbox entries", "error", err)
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w.logger.Info("draining outbox worker")
	for ctx.Err() == nil {
		n, err := w.ProcessBatch(ctx)
		if err != nil {
			w.logger.Error("failed to drain outbox", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}
}
