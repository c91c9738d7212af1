// Package service runs the integration handshake between a person and an
// entity: propose, decide, and the reconsent cycle that follows a change to
// the person's identity data.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	entitymodels "clubid/internal/entity/models"
	entitysvc "clubid/internal/entity/service"
	identity "clubid/internal/identity/models"
	"clubid/internal/identity/permission"
	"clubid/internal/identity/store/person"
	"clubid/internal/integration/metrics"
	"clubid/internal/integration/models"
	"clubid/internal/integration/store"
	"clubid/internal/notify"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/audit"
	"clubid/pkg/platform/tracing"
	"clubid/pkg/platform/tx"
	"clubid/pkg/platform/validation"
	"clubid/pkg/requestcontext"
)

// DefaultReconsentReason is recorded when the trigger gives none.
const DefaultReconsentReason = "identity data changed"

// Store persists integration requests.
// Create returns store.ErrConflict when a pending request for the same
// (person, entity) exists; lookups return store.ErrNotFound.
type Store interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error)
	FindByIDForUpdate(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error)
	FindPending(ctx context.Context, person id.PersonID, target id.EntityRef) (*models.Request, error)
	Update(ctx context.Context, r *models.Request) error
	// ListByPersonAndStatusForUpdate is never truncated.
	ListByPersonAndStatusForUpdate(ctx context.Context, person id.PersonID, status models.Status) ([]*models.Request, error)
	HasApproved(ctx context.Context, person id.PersonID, target id.EntityRef) (bool, error)
	ListForPerson(ctx context.Context, person id.PersonID) ([]*models.Request, error)
	ListInitiatedBy(ctx context.Context, person id.PersonID) ([]*models.Request, error)
	ListForEntity(ctx context.Context, target id.EntityRef) ([]*models.Request, error)
}

type PersonStore interface {
	FindByID(ctx context.Context, personID id.PersonID) (*identity.Person, error)
	FindByIDForUpdate(ctx context.Context, personID id.PersonID) (*identity.Person, error)
	Save(ctx context.Context, p *identity.Person) error
}

type Authorizer interface {
	Resolve(ctx context.Context, actor identity.Actor) (*identity.Person, identity.Role, error)
	Require(ctx context.Context, actor identity.Actor, perm permission.Permission) (*identity.Person, error)
	Can(ctx context.Context, actor identity.Actor, perm permission.Permission) (bool, error)
}

// Entities is the entity directory. Authorization always goes through it.
type Entities interface {
	Capability(kind id.EntityKind) (entitysvc.Capability, error)
	Get(ctx context.Context, ref id.EntityRef) (*entitymodels.Entity, error)
	ResolveAdmin(ctx context.Context, ref id.EntityRef) (id.PersonID, error)
	IsAdmin(ctx context.Context, person id.PersonID, ref id.EntityRef) (bool, error)
	AdministeredBy(ctx context.Context, person id.PersonID) ([]*entitymodels.Entity, error)
}

// AdminResolver finds who to notify on the entity side. It may be cached.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, ref id.EntityRef) (id.PersonID, error)
}

type Auditor interface {
	Append(ctx context.Context, entry *audit.Entry) error
}

type Service struct {
	store    Store
	persons  PersonStore
	auth     Authorizer
	entities Entities
	routing  AdminResolver
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

func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) { s.dispatch = d }
}

// WithAdminRouting replaces the directory as the source of notification
// recipients on the entity side.
func WithAdminRouting(r AdminResolver) Option {
	return func(s *Service) { s.routing = r }
}

func New(st Store, persons PersonStore, auth Authorizer, entities Entities, runner tx.Runner, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		store:    st,
		persons:  persons,
		auth:     auth,
		entities: entities,
		routing:  entities,
		tx:       runner,
		auditor:  auditor,
		tracer:   tracing.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sender = notify.NewSender(s.dispatch, s.logger)
	return s
}

// ProposeInput describes a new integration. A nil PersonID proposes for the actor.
type ProposeInput struct {
	PersonID id.PersonID
	Target   id.EntityRef
	Role     identity.Role
	Scope    json.RawMessage
	Notes    string
}

func (in *ProposeInput) validate() error {
	if !in.Target.Kind.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown entity type %q", in.Target.Kind)
	}
	if in.Target.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target entity is required")
	}
	if !in.Role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", in.Role)
	}
	if len(in.Scope) > 0 && !json.Valid(in.Scope) {
		return dErrors.New(dErrors.CodeValidation, "data_access_scope must be valid JSON")
	}
	if len(in.Scope) > validation.MaxScopeBytes {
		return dErrors.Newf(dErrors.CodeValidation, "data_access_scope exceeds %d bytes", validation.MaxScopeBytes)
	}
	in.Notes = strings.TrimSpace(in.Notes)
	return validation.CheckStringLength("notes", in.Notes, validation.MaxNotesLength)
}

// Propose opens a pending integration. The actor needs integration.propose
// unless they propose for themselves while holding no role. An actor
// proposing for someone else must also administer the target entity or hold
// integration.decide_any.
func (s *Service) Propose(ctx context.Context, actor identity.Actor, in ProposeInput) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "integration.propose",
		tracing.String("entity", in.Target.String()),
		tracing.String("role", string(in.Role)),
	)
	req, err := s.propose(ctx, actor, in)
	span.End(err)
	return req, err
}

func (s *Service) propose(ctx context.Context, actor identity.Actor, in ProposeInput) (*models.Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.PersonID.IsNil() {
		in.PersonID = actor.PersonID
	}
	self, _, err := s.auth.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	// A person with no role yet may still ask to join an entity; the role
	// usually follows from the membership.
	if in.PersonID != actor.PersonID || len(self.Roles) > 0 {
		if _, err := s.auth.Require(ctx, actor, permission.IntegrationPropose); err != nil {
			return nil, err
		}
	}
	if _, err := s.entities.Get(ctx, in.Target); err != nil {
		return nil, err
	}
	if in.PersonID != actor.PersonID {
		if err := s.requireEntitySide(ctx, actor, in.Target); err != nil {
			return nil, err
		}
		if _, err := s.persons.FindByID(ctx, in.PersonID); err != nil {
			return nil, translatePerson(err)
		}
	}

	var created *models.Request
	err = s.tx.RunInTx(tx.WithLockKey(ctx, in.PersonID.String()), func(ctx context.Context) error {
		if _, err := s.store.FindPending(ctx, in.PersonID, in.Target); err == nil {
			return errDuplicate(in.Target)
		} else if !errors.Is(err, store.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending integrations")
		}
		req, err := models.NewRequest(in.PersonID, in.Target, in.Role, in.Scope, in.Notes, actor.PersonID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, req); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return errDuplicate(in.Target)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create integration request")
		}
		if err := s.audit(ctx, actor.PersonID, req, models.ActionProposed, map[string]any{
			"entity":         req.Target.String(),
			"role":           string(req.Role),
			"self_initiated": req.SelfInitiated(),
		}); err != nil {
			return err
		}
		created = req
		recipient := req.PersonID
		if req.SelfInitiated() {
			recipient = s.entityAdmin(ctx, req.Target)
		}
		return s.stage(ctx, notify.KindIntegrationProposed, recipient, req, nil)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncProposed(string(created.Target.Kind), created.SelfInitiated())
	return created, nil
}

// Decide approves or rejects a pending integration. Approval propagates the
// membership through the entity kind's capability in the same transaction.
func (s *Service) Decide(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID, decision models.Decision, feedback string) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "integration.decide",
		tracing.String("request_id", requestID.String()),
		tracing.String("decision", string(decision)),
	)
	req, err := s.decide(ctx, actor, requestID, decision, feedback)
	span.End(err)
	return req, err
}

func (s *Service) decide(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID, decision models.Decision, feedback string) (*models.Request, error) {
	if _, err := models.ParseDecision(string(decision)); err != nil {
		return nil, err
	}
	feedback = strings.TrimSpace(feedback)
	if err := validation.CheckStringLength("feedback", feedback, validation.MaxFeedbackLength); err != nil {
		return nil, err
	}
	if _, _, err := s.auth.Resolve(ctx, actor); err != nil {
		return nil, err
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
			return dErrors.Newf(dErrors.CodeInvalidState, "integration request is already %s", req.Status)
		}
		if err := s.requireCounterparty(ctx, actor, req); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := req.Decide(decision, actor.PersonID, feedback, now); err != nil {
			return err
		}
		action := models.ActionRejected
		if req.Status == models.StatusApproved {
			action = models.ActionApproved
			if err := s.propagate(ctx, actor.PersonID, req, now); err != nil {
				return err
			}
		}
		if err := s.store.Update(ctx, req); err != nil {
			return dErrors.Wrap(translate(err), dErrors.CodeInternal, "failed to update integration request")
		}
		if err := s.audit(ctx, actor.PersonID, req, action, map[string]any{
			"entity":   req.Target.String(),
			"role":     string(req.Role),
			"feedback": feedback != "",
		}); err != nil {
			return err
		}
		decided = req
		return s.stage(ctx, notify.KindIntegrationDecided, req.InitiatedBy, req, map[string]any{"feedback": feedback})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDecision(string(decided.Status))
	s.logger.InfoContext(ctx, "integration request decided",
		"request_id", decided.ID.String(),
		"status", string(decided.Status),
		"decided_by", actor.PersonID.String(),
	)
	return decided, nil
}

func (s *Service) propagate(ctx context.Context, decidedBy id.PersonID, req *models.Request, now time.Time) error {
	c, err := s.entities.Capability(req.Target.Kind)
	if err != nil {
		return err
	}
	if err := s.supersede(ctx, decidedBy, req, c, now); err != nil {
		return err
	}
	p, err := s.persons.FindByIDForUpdate(ctx, req.PersonID)
	if err != nil {
		return translatePerson(err)
	}
	if err := c.Join(ctx, p, req.Target.ID, req.Role, now); err != nil {
		return err
	}
	if err := s.persons.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save person membership")
	}
	s.metrics.IncPropagation(string(req.Target.Kind))
	return nil
}

// supersede revokes the person's links whose membership Join is about to
// replace: a link to the same entity under any role, and for exclusive kinds
// a link to another entity of that kind. Each one is audited and its entity
// administrator told.
func (s *Service) supersede(ctx context.Context, decidedBy id.PersonID, next *models.Request, c entitysvc.Capability, now time.Time) error {
	for _, status := range []models.Status{models.StatusApproved, models.StatusRevokedPendingReconsent} {
		held, err := s.store.ListByPersonAndStatusForUpdate(ctx, next.PersonID, status)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load held integrations")
		}
		for _, prev := range held {
			if prev.ID == next.ID || !replaces(c, next.Target, prev.Target) {
				continue
			}
			if err := prev.Supersede(now); err != nil {
				return err
			}
			if err := s.store.Update(ctx, prev); err != nil {
				return dErrors.Wrap(translate(err), dErrors.CodeInternal, "failed to supersede integration")
			}
			detail := map[string]any{"entity": prev.Target.String(), "superseded_by": next.ID.String()}
			if err := s.audit(ctx, decidedBy, prev, models.ActionSuperseded, detail); err != nil {
				return err
			}
			if err := s.stage(ctx, notify.KindIntegrationSuperseded, s.entityAdmin(ctx, prev.Target), prev,
				map[string]any{"superseded_by": next.ID.String()}); err != nil {
				return err
			}
			s.metrics.IncSuperseded(string(prev.Target.Kind))
		}
	}
	return nil
}

func replaces(c entitysvc.Capability, next, prev id.EntityRef) bool {
	if prev.Equal(next) {
		return true
	}
	return c.Exclusive() && prev.Kind == next.Kind
}

// TriggerReconsent suspends every Approved integration of the person in one
// batch and returns how many changed. It joins the caller's transaction.
func (s *Service) TriggerReconsent(ctx context.Context, personID id.PersonID, reason string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "integration.trigger_reconsent", tracing.String("person_id", personID.String()))
	n, err := s.triggerReconsent(ctx, personID, reason)
	span.End(err)
	return n, err
}

func (s *Service) triggerReconsent(ctx context.Context, personID id.PersonID, reason string) (int, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReconsentReason
	}
	if err := validation.CheckStringLength("reason", reason, validation.MaxReasonLength); err != nil {
		return 0, err
	}

	var suspended int
	err := s.tx.RunInTx(tx.WithLockKey(ctx, personID.String()), func(ctx context.Context) error {
		approved, err := s.store.ListByPersonAndStatusForUpdate(ctx, personID, models.StatusApproved)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approved integrations")
		}
		now := requestcontext.Now(ctx)
		for _, req := range approved {
			if err := req.SuspendForReconsent(reason, now); err != nil {
				return err
			}
			if err := s.store.Update(ctx, req); err != nil {
				return dErrors.Wrap(translate(err), dErrors.CodeInternal, "failed to suspend integration")
			}
			if err := s.audit(ctx, personID, req, models.ActionReconsentRequired, map[string]any{
				"entity": req.Target.String(),
				"reason": reason,
			}); err != nil {
				return err
			}
			if err := s.stage(ctx, notify.KindReconsentRequired, req.PersonID, req, map[string]any{"reason": reason}); err != nil {
				return err
			}
		}
		suspended = len(approved)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveReconsent(suspended)
	if suspended > 0 {
		s.logger.InfoContext(ctx, "integrations suspended for reconsent",
			"person_id", personID.String(),
			"count", suspended,
		)
	}
	return suspended, nil
}

// Reaffirm restores access after reconsent without re-running propagation.
func (s *Service) Reaffirm(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "integration.reaffirm", tracing.String("request_id", requestID.String()))
	req, err := s.resolveReconsent(ctx, actor, requestID, models.ActionReaffirmed, notify.KindIntegrationReaffirmed,
		func(_ context.Context, req *models.Request, now time.Time) error {
			return req.Reaffirm(now)
		})
	span.End(err)
	if err != nil {
		return nil, err
	}
	s.metrics.IncReaffirmed()
	return req, nil
}

// Withdraw ends a suspended integration and removes the membership it created.
func (s *Service) Withdraw(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "integration.withdraw", tracing.String("request_id", requestID.String()))
	req, err := s.resolveReconsent(ctx, actor, requestID, models.ActionWithdrawn, notify.KindIntegrationWithdrawn,
		func(ctx context.Context, req *models.Request, now time.Time) error {
			if err := req.Withdraw(now); err != nil {
				return err
			}
			c, err := s.entities.Capability(req.Target.Kind)
			if err != nil {
				return err
			}
			p, err := s.persons.FindByIDForUpdate(ctx, req.PersonID)
			if err != nil {
				return translatePerson(err)
			}
			if err := c.Leave(ctx, p, req.Target.ID, now); err != nil {
				return err
			}
			if err := s.persons.Save(ctx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save person membership")
			}
			return nil
		})
	span.End(err)
	if err != nil {
		return nil, err
	}
	s.metrics.IncWithdrawn()
	return req, nil
}

type reconsentStep func(ctx context.Context, req *models.Request, now time.Time) error

// resolveReconsent is the shared shape of Reaffirm and Withdraw: only the
// subject person may act, and the entity administrator is told the outcome.
func (s *Service) resolveReconsent(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID, action string, kind notify.Kind, step reconsentStep) (*models.Request, error) {
	if _, _, err := s.auth.Resolve(ctx, actor); err != nil {
		return nil, err
	}
	peek, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var resolved *models.Request
	err = s.tx.RunInTx(tx.WithLockKey(ctx, peek.PersonID.String()), func(ctx context.Context) error {
		req, err := s.store.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return translate(err)
		}
		if req.PersonID != actor.PersonID {
			return dErrors.New(dErrors.CodeForbidden, "only the subject person can resolve a reconsent")
		}
		if err := step(ctx, req, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, req); err != nil {
			return dErrors.Wrap(translate(err), dErrors.CodeInternal, "failed to update integration request")
		}
		if err := s.audit(ctx, actor.PersonID, req, action, map[string]any{"entity": req.Target.String()}); err != nil {
			return err
		}
		resolved = req
		return s.stage(ctx, kind, s.entityAdmin(ctx, req.Target), req, nil)
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ListScope selects which side of the handshake List returns.
type ListScope string

const (
	ScopeSent     ListScope = "sent"
	ScopeReceived ListScope = "received"
)

func ParseListScope(s string) (ListScope, error) {
	switch ListScope(s) {
	case "", ScopeSent:
		return ScopeSent, nil
	case ScopeReceived:
		return ScopeReceived, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "scope must be one of [sent received], got %q", s)
}

// List returns requests the actor initiated (sent) or must answer (received).
// Received covers invitations addressed to the actor and person-initiated
// requests to entities the actor administers. A non-nil entityID narrows
// either scope to that entity.
func (s *Service) List(ctx context.Context, actor identity.Actor, scope ListScope, entityID *id.EntityID) ([]*models.Request, error) {
	if _, _, err := s.auth.Resolve(ctx, actor); err != nil {
		return nil, err
	}
	matchEntity := func(r *models.Request) bool { return entityID == nil || r.Target.ID == *entityID }

	var out []*models.Request
	switch scope {
	case ScopeSent:
		sent, err := s.store.ListInitiatedBy(ctx, actor.PersonID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list integration requests")
		}
		out = filter(sent, matchEntity)
	case ScopeReceived:
		administered, err := s.entities.AdministeredBy(ctx, actor.PersonID)
		if err != nil {
			return nil, err
		}
		var targets []id.EntityRef
		for _, e := range administered {
			if entityID == nil || e.Ref.ID == *entityID {
				targets = append(targets, e.Ref)
			}
		}
		if entityID != nil && len(targets) == 0 {
			return nil, dErrors.New(dErrors.CodeForbidden, "not an administrator of this entity")
		}
		for _, ref := range targets {
			reqs, err := s.store.ListForEntity(ctx, ref)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list integration requests")
			}
			out = append(out, filter(reqs, (*models.Request).SelfInitiated)...)
		}
		if entityID == nil {
			mine, err := s.store.ListForPerson(ctx, actor.PersonID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list integration requests")
			}
			out = append(out, filter(mine, func(r *models.Request) bool { return !r.SelfInitiated() })...)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown list scope %q", scope)
	}
	return out, nil
}

// Get returns a request to its participants, the entity administrator, or a
// holder of integration.decide_any.
func (s *Service) Get(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error) {
	if _, _, err := s.auth.Resolve(ctx, actor); err != nil {
		return nil, err
	}
	req, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Participant(actor.PersonID) {
		return req, nil
	}
	if err := s.requireEntitySide(ctx, actor, req.Target); err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a participant of this integration request")
	}
	return req, nil
}

// AccessGranted reports whether person currently has an Approved integration
// with target. Access is suspended while reconsent is pending.
func (s *Service) AccessGranted(ctx context.Context, personID id.PersonID, target id.EntityRef) (bool, error) {
	granted, err := s.store.HasApproved(ctx, personID, target)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check integration access")
	}
	return granted, nil
}

// requireCounterparty allows the side that did not initiate the request, or
// a holder of integration.decide_any.
func (s *Service) requireCounterparty(ctx context.Context, actor identity.Actor, req *models.Request) error {
	if req.SelfInitiated() {
		return s.requireEntitySide(ctx, actor, req.Target)
	}
	if actor.PersonID == req.PersonID {
		return nil
	}
	return s.requireDecideAny(ctx, actor)
}

func (s *Service) requireEntitySide(ctx context.Context, actor identity.Actor, target id.EntityRef) error {
	isAdmin, err := s.entities.IsAdmin(ctx, actor.PersonID, target)
	if err != nil {
		return err
	}
	if isAdmin {
		return nil
	}
	return s.requireDecideAny(ctx, actor)
}

func (s *Service) requireDecideAny(ctx context.Context, actor identity.Actor) error {
	ok, err := s.auth.Can(ctx, actor, permission.IntegrationDecideAny)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "not a counterparty of this integration request")
	}
	return nil
}

// entityAdmin resolves a notification recipient. Failures only skip the
// notification.
func (s *Service) entityAdmin(ctx context.Context, ref id.EntityRef) id.PersonID {
	admin, err := s.routing.ResolveAdmin(ctx, ref)
	if err != nil {
		s.logger.InfoContext(ctx, "no administrator to notify", "entity", ref.String(), "error", err)
		return id.PersonID{}
	}
	return admin
}

// stage queues a notification in the current unit of work.
func (s *Service) stage(ctx context.Context, kind notify.Kind, recipient id.PersonID, req *models.Request, extra map[string]any) error {
	data := map[string]any{
		"entity_type": string(req.Target.Kind),
		"entity_id":   req.Target.ID.String(),
		"role":        string(req.Role),
		"status":      string(req.Status),
	}
	for k, v := range extra {
		data[k] = v
	}
	err := s.sender.Stage(ctx, notify.Notification{
		Kind:        kind,
		RecipientID: recipient,
		SubjectType: audit.SubjectIntegrationRequest,
		SubjectID:   req.ID.String(),
		Data:        data,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage notification")
	}
	return nil
}

func (s *Service) find(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, translate(err)
	}
	return req, nil
}

func (s *Service) audit(ctx context.Context, actor id.PersonID, req *models.Request, action string, detail map[string]any) error {
	err := s.auditor.Append(ctx, &audit.Entry{
		ActorID:     actor,
		SubjectType: audit.SubjectIntegrationRequest,
		SubjectID:   req.ID.String(),
		Action:      action,
		Detail:      detail,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	return nil
}

func filter(reqs []*models.Request, keep func(*models.Request) bool) []*models.Request {
	out := make([]*models.Request, 0, len(reqs))
	for _, r := range reqs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func errDuplicate(target id.EntityRef) error {
	return dErrors.Newf(dErrors.CodeConflict, "a pending integration request for %s already exists", target.Kind)
}

func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "integration request not found")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "integration request conflict")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "integration request store failure")
	}
}

func translatePerson(err error) error {
	if errors.Is(err, person.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
}
