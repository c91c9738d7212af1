// Package service runs the role request workflow: submit, then approve or
// reject. Approval issues an identity code and grants the role in the same
// transaction that records the decision.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	identity "clubid/internal/identity/models"
	"clubid/internal/identity/permission"
	"clubid/internal/identity/store/person"
	"clubid/internal/notify"
	"clubid/internal/rolerequest/metrics"
	"clubid/internal/rolerequest/models"
	"clubid/internal/rolerequest/store"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/audit"
	pstrings "clubid/pkg/platform/strings"
	"clubid/pkg/platform/tracing"
	"clubid/pkg/platform/tx"
	"clubid/pkg/platform/validation"
	"clubid/pkg/requestcontext"
)

// Store persists role requests.
// Create returns store.ErrConflict when a pending request for the same
// (person, role) exists; lookups return store.ErrNotFound.
type Store interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error)
	FindByIDForUpdate(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error)
	FindPending(ctx context.Context, person id.PersonID, role identity.Role) (*models.Request, error)
	Update(ctx context.Context, r *models.Request) error
	ListByPerson(ctx context.Context, person id.PersonID) ([]*models.Request, error)
	ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Request, error)
}

type PersonStore interface {
	FindByIDForUpdate(ctx context.Context, personID id.PersonID) (*identity.Person, error)
	Save(ctx context.Context, p *identity.Person) error
}

type Authorizer interface {
	Resolve(ctx context.Context, actor identity.Actor) (*identity.Person, identity.Role, error)
	Require(ctx context.Context, actor identity.Actor, perm permission.Permission) (*identity.Person, error)
	Can(ctx context.Context, actor identity.Actor, perm permission.Permission) (bool, error)
}

type CodeIssuer interface {
	Issue(ctx context.Context, role identity.Role, jurisdiction string) (identity.IdentityCode, error)
}

type Auditor interface {
	Append(ctx context.Context, entry *audit.Entry) error
}

type Service struct {
	store    Store
	persons  PersonStore
	auth     Authorizer
	issuer   CodeIssuer
	tx       tx.Runner
	auditor  Auditor
	dispatch notify.Dispatcher
	sender   *notify.Sender
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithDispatcher sets the sink for decision notifications.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) { s.dispatch = d }
}

func New(st Store, persons PersonStore, auth Authorizer, issuer CodeIssuer, runner tx.Runner, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		store:   st,
		persons: persons,
		auth:    auth,
		issuer:  issuer,
		tx:      runner,
		auditor: auditor,
		tracer:  tracing.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sender = notify.NewSender(s.dispatch, s.logger)
	return s
}

// Submit opens a pending request for role on behalf of the actor.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, role identity.Role, evidence []string) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "role_request.submit", tracing.String("role", string(role)))
	req, err := s.submit(ctx, actor, role, evidence)
	span.End(err)
	return req, err
}

func (s *Service) submit(ctx context.Context, actor identity.Actor, role identity.Role, evidence []string) (*models.Request, error) {
	if role == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requested role is required")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	if !role.Requestable() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "role %s cannot be requested", role)
	}
	evidence = pstrings.DedupeAndTrim(evidence)
	if err := validation.CheckSliceCount("evidence_refs", len(evidence), validation.MaxEvidenceRefs); err != nil {
		return nil, err
	}
	if err := validation.CheckEachStringLength("evidence_refs", evidence, validation.MaxEvidenceRefLength); err != nil {
		return nil, err
	}
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}

	var created *models.Request
	err := s.tx.RunInTx(tx.WithLockKey(ctx, actor.PersonID.String()), func(ctx context.Context) error {
		p, _, err := s.auth.Resolve(ctx, actor)
		if err != nil {
			return err
		}
		if p.HoldsActive(role) {
			return dErrors.Newf(dErrors.CodeConflict, "role %s is already held", role)
		}
		if _, err := s.store.FindPending(ctx, p.ID, role); err == nil {
			return errDuplicate(role)
		} else if !errors.Is(err, store.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending requests")
		}

		req, err := models.NewRequest(p.ID, role, evidence, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, req); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return errDuplicate(role)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create role request")
		}
		if err := s.audit(ctx, actor.PersonID, req, models.ActionSubmitted, map[string]any{
			"role":     string(role),
			"evidence": len(evidence),
		}); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncSubmitted(string(role))
	return created, nil
}

// Approve issues a code for the requested role using the requester's
// jurisdiction and grants the role with Active status.
func (s *Service) Approve(ctx context.Context, reviewer identity.Actor, requestID id.RoleRequestID) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "role_request.approve", tracing.String("request_id", requestID.String()))
	start := time.Now()
	req, err := s.decide(ctx, reviewer, requestID, func(ctx context.Context, req *models.Request, now time.Time) (map[string]any, error) {
		p, err := s.persons.FindByIDForUpdate(ctx, req.PersonID)
		if err != nil {
			if errors.Is(err, person.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "requester not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requester")
		}
		code, err := s.issuer.Issue(ctx, req.Role, p.JurisdictionValue())
		if err != nil {
			return nil, err
		}
		previous, _ := p.CodeFor(req.Role)
		if err := p.GrantRole(req.Role, code, now); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := s.persons.Save(ctx, p); err != nil {
			if errors.Is(err, person.ErrConflict) {
				return nil, dErrors.New(dErrors.CodeConflict, "identity code already held by another person")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save requester")
		}
		if err := req.Approve(reviewer.PersonID, code, now); err != nil {
			return nil, err
		}
		detail := map[string]any{"role": string(req.Role), "code": code.String()}
		if previous != "" {
			detail["previous_code"] = previous.String()
		}
		return detail, nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDecision(string(models.StatusApproved), time.Since(start))
	s.metrics.IncCodeIssued(string(req.Role))
	return req, nil
}

// Reject closes the request with a mandatory reason.
func (s *Service) Reject(ctx context.Context, reviewer identity.Actor, requestID id.RoleRequestID, reason string) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "role_request.reject", tracing.String("request_id", requestID.String()))
	start := time.Now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := dErrors.New(dErrors.CodeValidation, "rejection reason is required")
		span.End(err)
		return nil, err
	}
	if err := validation.CheckStringLength("reason", reason, validation.MaxReasonLength); err != nil {
		span.End(err)
		return nil, err
	}
	req, err := s.decide(ctx, reviewer, requestID, func(_ context.Context, req *models.Request, now time.Time) (map[string]any, error) {
		if err := req.Reject(reviewer.PersonID, reason, now); err != nil {
			return nil, err
		}
		return map[string]any{"role": string(req.Role), "reason": reason}, nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDecision(string(models.StatusRejected), time.Since(start))
	return req, nil
}

type decision func(ctx context.Context, req *models.Request, now time.Time) (map[string]any, error)

// decide runs one decision in a transaction serialized on the requester. The
// state check comes before authorization so a replay on a terminal request
// reports InvalidState regardless of who sends it.
func (s *Service) decide(ctx context.Context, reviewer identity.Actor, requestID id.RoleRequestID, apply decision) (*models.Request, error) {
	if reviewer.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	peek, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var decided *models.Request
	err = s.tx.RunInTx(tx.WithLockKey(ctx, peek.PersonID.String()), func(ctx context.Context) error {
		req, err := s.store.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return translate(err)
		}
		if !req.IsPending() {
			return dErrors.Newf(dErrors.CodeInvalidState, "role request is already %s", req.Status)
		}
		if _, err := s.auth.Require(ctx, reviewer, permission.RoleRequestReview); err != nil {
			return err
		}
		detail, err := apply(ctx, req, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, req); err != nil {
			return dErrors.Wrap(translate(err), dErrors.CodeInternal, "failed to update role request")
		}
		action := models.ActionApproved
		if req.Status == models.StatusRejected {
			action = models.ActionRejected
		}
		if err := s.audit(ctx, reviewer.PersonID, req, action, detail); err != nil {
			return err
		}
		decided = req
		return s.notifyDecision(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "role request decided",
		"request_id", decided.ID.String(),
		"status", string(decided.Status),
		"reviewer_id", reviewer.PersonID.String(),
	)
	return decided, nil
}

// ListMine returns the actor's own requests, oldest first.
func (s *Service) ListMine(ctx context.Context, actor identity.Actor) ([]*models.Request, error) {
	p, _, err := s.auth.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByPerson(ctx, p.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list role requests")
	}
	return reqs, nil
}

// ListPending is the reviewer queue.
func (s *Service) ListPending(ctx context.Context, reviewer identity.Actor, limit int) ([]*models.Request, error) {
	if _, err := s.auth.Require(ctx, reviewer, permission.RoleRequestReview); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByStatus(ctx, models.StatusPending, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending role requests")
	}
	return reqs, nil
}

// Get returns a request to its owner or to a reviewer.
func (s *Service) Get(ctx context.Context, actor identity.Actor, requestID id.RoleRequestID) (*models.Request, error) {
	p, _, err := s.auth.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	req, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.PersonID == p.ID {
		return req, nil
	}
	ok, err := s.auth.Can(ctx, actor, permission.RoleRequestReview)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view this role request")
	}
	return req, nil
}

func (s *Service) find(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, translate(err)
	}
	return req, nil
}

func (s *Service) audit(ctx context.Context, actor id.PersonID, req *models.Request, action string, detail map[string]any) error {
	err := s.auditor.Append(ctx, &audit.Entry{
		ActorID:     actor,
		SubjectType: audit.SubjectRoleRequest,
		SubjectID:   req.ID.String(),
		Action:      action,
		Detail:      detail,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	return nil
}

func (s *Service) notifyDecision(ctx context.Context, req *models.Request) error {
	data := map[string]any{"role": string(req.Role), "status": string(req.Status)}
	if req.IssuedCode != "" {
		data["code"] = req.IssuedCode.String()
	}
	if req.RejectionReason != "" {
		data["reason"] = req.RejectionReason
	}
	err := s.sender.Stage(ctx, notify.Notification{
		Kind:        notify.KindRoleRequestDecided,
		RecipientID: req.PersonID,
		SubjectType: audit.SubjectRoleRequest,
		SubjectID:   req.ID.String(),
		Data:        data,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage notification")
	}
	return nil
}

func errDuplicate(role identity.Role) error {
	return dErrors.Newf(dErrors.CodeConflict, "a pending request for role %s already exists", role)
}

func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "role request not found")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "role request conflict")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "role request store failure")
	}
}
