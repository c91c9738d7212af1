// Package models holds integration requests: the handshake that links a
// person to a club, school or federation.
package models

import (
	"encoding/json"
	"time"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

type Status string

const (
	StatusPending                 Status = "pending"
	StatusApproved                Status = "approved"
	StatusRejected                Status = "rejected"
	StatusRevokedPendingReconsent Status = "revoked_pending_reconsent"
	StatusRevoked                 Status = "revoked"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRevokedPendingReconsent, StatusRevoked:
		return true
	}
	return false
}

// Decision is the outcome a counterparty picks for a pending request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApproved, DecisionRejected:
		return Decision(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "decision must be one of [approved rejected], got %q", s)
}

// Audit actions.
const (
	ActionProposed          = "integration_proposed"
	ActionApproved          = "integration_approved"
	ActionRejected          = "integration_rejected"
	ActionReconsentRequired = "integration_reconsent_required"
	ActionReaffirmed        = "integration_reaffirmed"
	ActionWithdrawn         = "integration_withdrawn"
	ActionSuperseded        = "integration_superseded"
)

const (
	feedbackSeparator = "\n\nFeedback: "
	emptyScope        = "{}"
)

// Request links PersonID to Target under Role once approved.
//
// InitiatedBy is the person for self-initiated requests and the entity
// administrator (or a federation reviewer) for invitations.
type Request struct {
	ID                   id.IntegrationRequestID
	PersonID             id.PersonID
	Target               id.EntityRef
	Role                 identity.Role
	Scope                json.RawMessage
	Notes                string
	Status               Status
	InitiatedBy          id.PersonID
	DecidedBy            id.PersonID
	DecidedAt            *time.Time
	ReconsentReason      string
	ReconsentRequestedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func NewRequest(person id.PersonID, target id.EntityRef, role identity.Role, scope json.RawMessage, notes string, initiatedBy id.PersonID, now time.Time) (*Request, error) {
	if person.IsNil() || initiatedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person and initiator required")
	}
	if !target.Kind.IsValid() || target.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "target entity required")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role %q", role)
	}
	if len(scope) == 0 {
		scope = json.RawMessage(emptyScope)
	}
	return &Request{
		ID:          id.NewIntegrationRequestID(),
		PersonID:    person,
		Target:      target,
		Role:        role,
		Scope:       scope,
		Notes:       notes,
		Status:      StatusPending,
		InitiatedBy: initiatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SelfInitiated reports whether the person proposed the link themselves.
func (r *Request) SelfInitiated() bool { return r.InitiatedBy == r.PersonID }

func (r *Request) IsPending() bool { return r.Status == StatusPending }

// AccessGranted is true only while the link is Approved.
func (r *Request) AccessGranted() bool { return r.Status == StatusApproved }

// Decide moves a pending request to the chosen outcome, appending feedback to the notes.
func (r *Request) Decide(decision Decision, decidedBy id.PersonID, feedback string, now time.Time) error {
	if !r.IsPending() {
		return dErrors.Newf(dErrors.CodeInvalidState, "integration request is already %s", r.Status)
	}
	switch decision {
	case DecisionApproved:
		r.Status = StatusApproved
	case DecisionRejected:
		r.Status = StatusRejected
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown decision %q", decision)
	}
	if feedback != "" {
		r.Notes += feedbackSeparator + feedback
	}
	r.DecidedBy = decidedBy
	r.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}

// SuspendForReconsent revokes access until the person reaffirms or withdraws.
func (r *Request) SuspendForReconsent(reason string, now time.Time) error {
	if r.Status != StatusApproved {
		return dErrors.Newf(dErrors.CodeInvalidState, "integration request is %s, not approved", r.Status)
	}
	r.Status = StatusRevokedPendingReconsent
	r.ReconsentReason = reason
	r.ReconsentRequestedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reaffirm restores access after reconsent. Membership was never removed.
func (r *Request) Reaffirm(now time.Time) error {
	if r.Status != StatusRevokedPendingReconsent {
		return dErrors.Newf(dErrors.CodeInvalidState, "integration request is %s, not awaiting reconsent", r.Status)
	}
	r.Status = StatusApproved
	r.UpdatedAt = now
	return nil
}

// Withdraw ends the link for good.
func (r *Request) Withdraw(now time.Time) error {
	if r.Status != StatusRevokedPendingReconsent {
		return dErrors.Newf(dErrors.CodeInvalidState, "integration request is %s, not awaiting reconsent", r.Status)
	}
	r.Status = StatusRevoked
	r.UpdatedAt = now
	return nil
}

// Supersede ends a link whose membership a newer approval replaced. It
// applies to Approved and RevokedPendingReconsent links.
func (r *Request) Supersede(now time.Time) error {
	if r.Status != StatusApproved && r.Status != StatusRevokedPendingReconsent {
		return dErrors.Newf(dErrors.CodeInvalidState, "integration request is %s, nothing to supersede", r.Status)
	}
	r.Status = StatusRevoked
	r.UpdatedAt = now
	return nil
}

// HoldsMembership is true while the link's membership should exist.
func (r *Request) HoldsMembership() bool {
	return r.Status == StatusApproved || r.Status == StatusRevokedPendingReconsent
}

// Participant reports whether person is the subject or the initiator.
func (r *Request) Participant(person id.PersonID) bool {
	return person == r.PersonID || person == r.InitiatedBy
}

func (r *Request) Clone() *Request {
	c := *r
	c.Scope = append(json.RawMessage(nil), r.Scope...)
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	if r.ReconsentRequestedAt != nil {
		t := *r.ReconsentRequestedAt
		c.ReconsentRequestedAt = &t
	}
	return &c
}
