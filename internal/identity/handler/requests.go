package handler

import (
	"strings"

	"clubid/internal/identity/models"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/validation"
)

type SwitchRoleRequest struct {
	Role string `json:"role" validate:"required,notblank"`
}

func (r *SwitchRoleRequest) Sanitize()  { r.Role = strings.TrimSpace(r.Role) }
func (r *SwitchRoleRequest) Normalize() { r.Role = strings.ToLower(r.Role) }

func (r *SwitchRoleRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if !models.ParseRole(r.Role).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.Role)
	}
	return nil
}

// DocumentRequest replaces the identity document. Reason is recorded in the
// reconsent notice sent to every linked entity.
type DocumentRequest struct {
	DocumentNumber string `json:"document_number" validate:"required,notblank"`
	Reason         string `json:"reason"`
}

func (r *DocumentRequest) Sanitize() {
	r.DocumentNumber = strings.TrimSpace(r.DocumentNumber)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *DocumentRequest) Validate() error {
	if err := validation.CheckStringLength("document_number", r.DocumentNumber, validation.MaxDocumentLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("reason", r.Reason, validation.MaxReasonLength); err != nil {
		return err
	}
	return validation.Validate(r)
}

// JurisdictionRequest sets or, with a null value, clears the jurisdiction.
type JurisdictionRequest struct {
	Jurisdiction *string `json:"jurisdiction"`
}

func (r *JurisdictionRequest) Validate() error {
	if r.Jurisdiction == nil {
		return nil
	}
	return validation.CheckStringLength("jurisdiction", strings.TrimSpace(*r.Jurisdiction), validation.MaxJurisdiction)
}
