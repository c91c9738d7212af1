// Package models holds role requests: a person asking to be granted a role.
package models

import (
	"time"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool { return s == StatusApproved || s == StatusRejected }

// Audit actions.
const (
	ActionSubmitted = "role_request_submitted"
	ActionApproved  = "role_request_approved"
	ActionRejected  = "role_request_rejected"
)

// Request moves Pending to Approved or Rejected once and is immutable after.
type Request struct {
	ID              id.RoleRequestID
	PersonID        id.PersonID
	Role            identity.Role
	EvidenceRefs    []string
	Status          Status
	ReviewerID      id.PersonID
	DecidedAt       *time.Time
	RejectionReason string
	IssuedCode      identity.IdentityCode
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewRequest(person id.PersonID, role identity.Role, evidence []string, now time.Time) (*Request, error) {
	if person.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person ID required")
	}
	if !role.Requestable() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "role %q cannot be requested", role)
	}
	if evidence == nil {
		evidence = []string{}
	}
	return &Request{
		ID:           id.NewRoleRequestID(),
		PersonID:     person,
		Role:         role,
		EvidenceRefs: evidence,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *Request) IsPending() bool { return r.Status == StatusPending }

// Approve records the decision and the code that was issued.
func (r *Request) Approve(reviewer id.PersonID, code identity.IdentityCode, now time.Time) error {
	if !r.IsPending() {
		return dErrors.Newf(dErrors.CodeInvalidState, "role request is already %s", r.Status)
	}
	r.Status = StatusApproved
	r.ReviewerID = reviewer
	r.IssuedCode = code
	r.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Request) Reject(reviewer id.PersonID, reason string, now time.Time) error {
	if !r.IsPending() {
		return dErrors.Newf(dErrors.CodeInvalidState, "role request is already %s", r.Status)
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	r.Status = StatusRejected
	r.ReviewerID = reviewer
	r.RejectionReason = reason
	r.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}

// Clone copies the request so stores never share slices with callers.
func (r *Request) Clone() *Request {
	c := *r
	c.EvidenceRefs = append([]string(nil), r.EvidenceRefs...)
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	return &c
}
