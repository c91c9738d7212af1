package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubid/pkg/platform/audit/metrics"
	"clubid/pkg/requestcontext"
)

// Trail stamps entries, writes them to the store and mirrors them to the log.
type Trail struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Trail)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) { t.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trail) { t.metrics = m }
}

func NewTrail(store Store, opts ...Option) *Trail {
	t := &Trail{store: store}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append fills id, timestamp and request id when absent, then persists the
// entry. The error is returned so the caller's transaction rolls back.
func (t *Trail) Append(ctx context.Context, entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.ID == "" {
		entry.ID = NewEntryID(entry.Timestamp)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	start := time.Now()
	if err := t.store.Append(ctx, entry); err != nil {
		t.metrics.IncAppendFailures()
		return fmt.Errorf("append audit entry %s: %w", entry.Action, err)
	}
	t.metrics.ObserveAppend(entry.Action, time.Since(start))

	if t.logger != nil {
		t.logger.InfoContext(ctx, entry.Action,
			"log_type", "audit",
			"actor_id", entry.ActorID.String(),
			"subject_type", entry.SubjectType,
			"subject_id", entry.SubjectID,
			"request_id", entry.RequestID,
		)
	}
	return nil
}

// Query is read-only and bounded by Filter.EffectiveLimit.
func (t *Trail) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	filter.Limit = filter.EffectiveLimit()
	return t.store.Query(ctx, filter)
}
