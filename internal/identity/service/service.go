// Package service manages person profiles: registration, the active role
// selection, jurisdiction and the identity document.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	entity "clubid/internal/entity/models"
	"clubid/internal/identity/models"
	"clubid/internal/identity/store/person"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/audit"
	"clubid/pkg/platform/tracing"
	"clubid/pkg/platform/tx"
	"clubid/pkg/platform/validation"
	"clubid/pkg/requestcontext"
)

const (
	ActionPersonRegistered        = "person_registered"
	ActionRoleProvisioned         = "role_provisioned"
	ActionActiveRoleSwitched      = "active_role_switched"
	ActionIdentityDocumentUpdated = "identity_document_updated"
	ActionJurisdictionUpdated     = "jurisdiction_updated"
)

// PersonStore persists people.
type PersonStore interface {
	PersonReader
	Create(ctx context.Context, p *models.Person) error
	Save(ctx context.Context, p *models.Person) error
}

// CodeIssuer issues identity codes.
type CodeIssuer interface {
	Issue(ctx context.Context, role models.Role, jurisdiction string) (models.IdentityCode, error)
}

// Reconsenter suspends a person's approved integrations.
type Reconsenter interface {
	TriggerReconsent(ctx context.Context, personID id.PersonID, reason string) (int, error)
}

// Memberships reads the person's entity links for the profile view.
type Memberships interface {
	Memberships(ctx context.Context, person id.PersonID) ([]*entity.Membership, error)
	AthleteProfile(ctx context.Context, person id.PersonID) (*entity.AthleteProfile, error)
}

type Auditor interface {
	Append(ctx context.Context, entry *audit.Entry) error
}

// Profile is a person with their entity links.
type Profile struct {
	Person      *models.Person
	Memberships []*entity.Membership
	Athlete     *entity.AthleteProfile
}

type Service struct {
	persons     PersonStore
	issuer      CodeIssuer
	tx          tx.Runner
	auditor     Auditor
	auth        *Authorizer
	reconsent   Reconsenter
	memberships Memberships
	tracer      tracing.Tracer
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithReconsenter(r Reconsenter) Option {
	return func(s *Service) { s.reconsent = r }
}

func WithMemberships(m Memberships) Option {
	return func(s *Service) { s.memberships = m }
}

func New(persons PersonStore, issuer CodeIssuer, runner tx.Runner, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		persons: persons,
		issuer:  issuer,
		tx:      runner,
		auditor: auditor,
		auth:    NewAuthorizer(persons),
		tracer:  tracing.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorizer exposes the checker other modules share.
func (s *Service) Authorizer() *Authorizer { return s.auth }

// Register creates a person with no roles.
func (s *Service) Register(ctx context.Context, displayName string, jurisdiction *string) (*models.Person, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "display name is required")
	}
	if err := checkJurisdiction(jurisdiction); err != nil {
		return nil, err
	}
	p, err := models.NewPerson(id.NewPersonID(), displayName, jurisdiction, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(tx.WithLockKey(ctx, p.ID.String()), func(ctx context.Context) error {
		if err := s.persons.Create(ctx, p); err != nil {
			if errors.Is(err, person.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "person already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
		}
		return s.audit(ctx, p.ID, p.ID, ActionPersonRegistered, nil)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Provision grants a role outside the request workflow, for bootstrap
// administrators. A role already held keeps its code and becomes Active.
func (s *Service) Provision(ctx context.Context, personID id.PersonID, role models.Role) (*models.Person, error) {
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	var out *models.Person
	err := s.tx.RunInTx(tx.WithLockKey(ctx, personID.String()), func(ctx context.Context) error {
		p, err := s.lock(ctx, personID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		code, held := p.CodeFor(role)
		if !held {
			if code, err = s.issuer.Issue(ctx, role, p.JurisdictionValue()); err != nil {
				return err
			}
		}
		if err := p.GrantRole(role, code, now); err != nil {
			return err
		}
		if err := s.save(ctx, p); err != nil {
			return err
		}
		out = p
		return s.audit(ctx, personID, personID, ActionRoleProvisioned, map[string]any{"role": string(role), "code": code.String()})
	})
	return out, err
}

// Profile returns the actor's own person record and entity links.
func (s *Service) Profile(ctx context.Context, actor models.Actor) (*Profile, error) {
	p, _, err := s.auth.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	profile := &Profile{Person: p}
	if s.memberships == nil {
		return profile, nil
	}
	if profile.Memberships, err = s.memberships.Memberships(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.HasRole(models.RoleAthlete) {
		if profile.Athlete, err = s.memberships.AthleteProfile(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// SwitchActiveRole changes the persisted default role. Only Active roles qualify.
func (s *Service) SwitchActiveRole(ctx context.Context, actor models.Actor, role models.Role) (*models.Person, error) {
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	var out *models.Person
	err := s.tx.RunInTx(tx.WithLockKey(ctx, actor.PersonID.String()), func(ctx context.Context) error {
		p, err := s.lock(ctx, actor.PersonID)
		if err != nil {
			return err
		}
		previous := p.ActiveRole
		if err := p.SwitchActiveRole(role, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.save(ctx, p); err != nil {
			return err
		}
		out = p
		return s.audit(ctx, p.ID, p.ID, ActionActiveRoleSwitched, map[string]any{"from": string(previous), "to": string(role)})
	})
	return out, err
}

// UpdateIdentityDocument replaces the sensitive document reference and, in the
// same transaction, moves every approved integration of the person to
// reconsent. It returns how many integrations were suspended.
func (s *Service) UpdateIdentityDocument(ctx context.Context, actor models.Actor, document, reason string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "identity.update_document")
	var suspended int
	var err error
	defer func() { span.End(err) }()

	if actor.IsZero() {
		err = dErrors.New(dErrors.CodeUnauthorized, "missing actor")
		return 0, err
	}
	document = strings.TrimSpace(document)
	if document == "" {
		err = dErrors.New(dErrors.CodeValidation, "document number is required")
		return 0, err
	}
	if err = validation.CheckStringLength("document_number", document, validation.MaxDocumentLength); err != nil {
		return 0, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "identity document updated"
	}

	err = s.tx.RunInTx(tx.WithLockKey(ctx, actor.PersonID.String()), func(ctx context.Context) error {
		p, err := s.lock(ctx, actor.PersonID)
		if err != nil {
			return err
		}
		if p.IdentityDocument == document {
			return nil
		}
		p.IdentityDocument = document
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.save(ctx, p); err != nil {
			return err
		}
		if s.reconsent != nil {
			if suspended, err = s.reconsent.TriggerReconsent(ctx, p.ID, reason); err != nil {
				return err
			}
		}
		// The document itself stays out of the trail.
		detail := map[string]any{"reason": reason, "integrations_suspended": suspended}
		return s.audit(ctx, p.ID, p.ID, ActionIdentityDocumentUpdated, detail)
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(tracing.Int("suspended", suspended))
	return suspended, nil
}

// UpdateJurisdiction changes the jurisdiction used for future codes. Codes
// already issued are kept.
func (s *Service) UpdateJurisdiction(ctx context.Context, actor models.Actor, jurisdiction *string) (*models.Person, error) {
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if jurisdiction != nil {
		trimmed := strings.TrimSpace(*jurisdiction)
		if trimmed == "" {
			jurisdiction = nil
		} else {
			jurisdiction = &trimmed
		}
	}
	if err := checkJurisdiction(jurisdiction); err != nil {
		return nil, err
	}
	var out *models.Person
	err := s.tx.RunInTx(tx.WithLockKey(ctx, actor.PersonID.String()), func(ctx context.Context) error {
		p, err := s.lock(ctx, actor.PersonID)
		if err != nil {
			return err
		}
		previous := p.JurisdictionValue()
		p.Jurisdiction = jurisdiction
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.save(ctx, p); err != nil {
			return err
		}
		out = p
		return s.audit(ctx, p.ID, p.ID, ActionJurisdictionUpdated, map[string]any{"from": previous, "to": p.JurisdictionValue()})
	})
	return out, err
}

func (s *Service) lock(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	p, err := s.persons.FindByIDForUpdate(ctx, personID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.persons.Save(ctx, p); err != nil {
		if errors.Is(err, person.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "identity code already held by another person")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save person")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor, subject id.PersonID, action string, detail map[string]any) error {
	err := s.auditor.Append(ctx, &audit.Entry{
		ActorID:     actor,
		SubjectType: audit.SubjectPerson,
		SubjectID:   subject.String(),
		Action:      action,
		Detail:      detail,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	return nil
}

func checkJurisdiction(j *string) error {
	if j == nil {
		return nil
	}
	return validation.CheckStringLength("jurisdiction", *j, validation.MaxJurisdiction)
}
