package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubid/internal/platform/kafka/producer"
	"clubid/pkg/platform/outbox"
	"clubid/pkg/platform/outbox/store/memory"
	"clubid/pkg/platform/tx"
)

type fakePublisher struct {
	mu      sync.Mutex
	sent    []*producer.Message
	failFor map[string]bool
}

func (f *fakePublisher) Produce(_ context.Context, msg *producer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.Headers["event_type"]] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newWorker(store outbox.Store, pub Publisher, opts ...Option) *Worker {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(store, pub, tx.NewMemory(), opts...)
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("publishes oldest first and marks processed", func(t *testing.T) {
		store := memory.New()
		first := outbox.NewEntry("role_request", "a", "role_request.submitted", []byte(`1`), base)
		second := outbox.NewEntry("role_request", "a", "role_request.approved", []byte(`2`), base.Add(time.Second))
		require.NoError(t, store.Append(ctx, second))
		require.NoError(t, store.Append(ctx, first))

		pub := &fakePublisher{}
		n, err := newWorker(store, pub, WithTopic("t")).ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, pub.sent, 2)
		assert.Equal(t, first.ID.String(), string(pub.sent[0].Key))
		assert.Equal(t, "t", pub.sent[0].Topic)
		assert.Equal(t, "role_request.submitted", pub.sent[0].Headers["event_type"])

		pending, err := store.CountPending(ctx)
		require.NoError(t, err)
		assert.Zero(t, pending)
	})

	t.Run("failed publish leaves entry pending", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Append(ctx, outbox.NewEntry("integration_request", "b", "integration_request.proposed", nil, base)))
		require.NoError(t, store.Append(ctx, outbox.NewEntry("integration_request", "b", "integration_request.decided", nil, base.Add(time.Second))))

		pub := &fakePublisher{failFor: map[string]bool{"integration_request.proposed": true}}
		n, err := newWorker(store, pub).ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		pending, err := store.CountPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)
	})

	t.Run("respects batch size", func(t *testing.T) {
		store := memory.New()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Append(ctx, outbox.NewEntry("x", "y", "z", nil, base.Add(time.Duration(i)*time.Second))))
		}
		n, err := newWorker(store, &fakePublisher{}, WithBatchSize(2)).ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestRunDrainsOnShutdown(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Append(context.Background(), outbox.NewEntry("x", "y", "z", nil, time.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{}
	require.NoError(t, newWorker(store, pub, WithPollInterval(time.Hour)).Run(ctx))
	assert.Len(t, pub.sent, 1)
}

func TestRetentionPrunesProcessed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := memory.New()
	old := outbox.NewEntry("x", "y", "z", nil, now.Add(-72*time.Hour))
	require.NoError(t, store.Append(ctx, old))
	require.NoError(t, store.MarkProcessed(ctx, old.ID, now.Add(-48*time.Hour)))

	w := newWorker(store, &fakePublisher{}, WithRetention(24*time.Hour), WithClock(func() time.Time { return now }))
	w.housekeeping(ctx)
	assert.Empty(t, store.All())
}
