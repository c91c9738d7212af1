package handler

import (
	"strings"

	identity "clubid/internal/identity/models"
	dErrors "clubid/pkg/domain-errors"
	pstrings "clubid/pkg/platform/strings"
	"clubid/pkg/platform/validation"
)

// SubmitRequest asks for a role, optionally with supporting documents.
type SubmitRequest struct {
	RequestedRole string   `json:"requested_role" validate:"required,notblank"`
	EvidenceRefs  []string `json:"evidence_refs" validate:"omitempty,dive,url"`
}

func (r *SubmitRequest) Sanitize() {
	r.RequestedRole = strings.TrimSpace(r.RequestedRole)
	r.EvidenceRefs = pstrings.DedupeAndTrim(r.EvidenceRefs)
}

func (r *SubmitRequest) Validate() error {
	if err := validation.CheckSliceCount("evidence_refs", len(r.EvidenceRefs), validation.MaxEvidenceRefs); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("evidence_refs", r.EvidenceRefs, validation.MaxEvidenceRefLength); err != nil {
		return err
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if !identity.ParseRole(r.RequestedRole).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.RequestedRole)
	}
	return nil
}

func (r *SubmitRequest) Role() identity.Role { return identity.ParseRole(r.RequestedRole) }

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,notblank"`
}

func (r *RejectRequest) Sanitize() { r.Reason = strings.TrimSpace(r.Reason) }

func (r *RejectRequest) Validate() error {
	if err := validation.CheckStringLength("reason", r.Reason, validation.MaxReasonLength); err != nil {
		return err
	}
	return validation.Validate(r)
}
