package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"clubid/pkg/platform/outbox"
)

// OutboxStore is the part of the outbox the dispatcher writes to.
type OutboxStore interface {
	Append(ctx context.Context, entry *outbox.Entry) error
}

// OutboxDispatcher stages notifications for the outbox worker to publish.
type OutboxDispatcher struct {
	store OutboxStore
}

func NewOutboxDispatcher(store OutboxStore) *OutboxDispatcher {
	return &OutboxDispatcher{store: store}
}

type envelope struct {
	Notification
	RecipientID string `json:"recipient_id"`
}

// JoinsUnitOfWork marks the outbox append as transactional: the Postgres
// outbox store writes through the sql.Tx in context.
func (d *OutboxDispatcher) JoinsUnitOfWork() {}

func (d *OutboxDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(envelope{Notification: n, RecipientID: n.RecipientID.String()})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	entry := outbox.NewEntry(n.SubjectType, n.SubjectID, string(n.Kind), payload, n.CreatedAt)
	if err := d.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("stage notification: %w", err)
	}
	return nil
}

// LogDispatcher writes notifications to the log. Used when Kafka is disabled.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.logger.InfoContext(ctx, "notification",
		"kind", string(n.Kind),
		"recipient_id", n.RecipientID.String(),
		"subject_type", n.SubjectType,
		"subject_id", n.SubjectID,
	)
	return nil
}
