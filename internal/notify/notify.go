// Package notify hands workflow notifications to an external sink.
//
// Callers Stage notifications inside their unit of work. A dispatcher that
// joins the unit (the outbox) writes immediately and commits or rolls back
// with it. Any other dispatcher runs after commit and a failure is only
// logged.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "clubid/pkg/domain"
	"clubid/pkg/platform/tx"
)

// Kind tags what happened.
type Kind string

const (
	KindRoleRequestDecided    Kind = "role_request.decided"
	KindIntegrationProposed   Kind = "integration_request.proposed"
	KindIntegrationDecided    Kind = "integration_request.decided"
	KindReconsentRequired     Kind = "integration_request.reconsent_required"
	KindIntegrationReaffirmed Kind = "integration_request.reaffirmed"
	KindIntegrationWithdrawn  Kind = "integration_request.withdrawn"
	KindIntegrationSuperseded Kind = "integration_request.superseded"
)

// Notification is addressed to one person about one request.
type Notification struct {
	ID          uuid.UUID      `json:"id"`
	Kind        Kind           `json:"kind"`
	RecipientID id.PersonID    `json:"-"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Dispatcher is the sink contract.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// UnitOfWorkDispatcher is a Dispatcher whose writes join the caller's
// transaction.
type UnitOfWorkDispatcher interface {
	Dispatcher
	JoinsUnitOfWork()
}

// Sender stamps notifications and swallows dispatch failures.
type Sender struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewSender(d Dispatcher, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{dispatcher: d, logger: logger, now: time.Now}
}

// Stage hands n to a unit-of-work dispatcher right away and returns its
// error, so a failed write fails the transaction. Other dispatchers are
// deferred with tx.AfterCommit and never fail the caller.
func (s *Sender) Stage(ctx context.Context, n Notification) error {
	if s == nil || s.dispatcher == nil || n.RecipientID.IsNil() {
		return nil
	}
	n = s.stamp(n)
	if _, ok := s.dispatcher.(UnitOfWorkDispatcher); ok {
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			return fmt.Errorf("stage %s notification: %w", n.Kind, err)
		}
		return nil
	}
	tx.AfterCommit(ctx, func(ctx context.Context) { s.Send(ctx, n) })
	return nil
}

// Send dispatches n now. A nil Sender or a zero recipient is a no-op.
func (s *Sender) Send(ctx context.Context, n Notification) {
	if s == nil || s.dispatcher == nil || n.RecipientID.IsNil() {
		return
	}
	n = s.stamp(n)
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"kind", string(n.Kind),
			"recipient_id", n.RecipientID.String(),
			"subject_id", n.SubjectID,
			"error", err,
		)
	}
}

func (s *Sender) stamp(n Notification) Notification {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	return n
}
