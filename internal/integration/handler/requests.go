package handler

import (
	"encoding/json"
	"strings"

	identity "clubid/internal/identity/models"
	"clubid/internal/integration/models"
	"clubid/internal/integration/service"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/validation"
)

// ProposeRequest opens an integration. PersonID is set when an entity
// administrator invites someone.
type ProposeRequest struct {
	PersonID         string          `json:"person_id" validate:"omitempty,uuid"`
	TargetEntityID   string          `json:"target_entity_id" validate:"required,uuid"`
	TargetEntityType string          `json:"target_entity_type" validate:"required,notblank"`
	RequestedRole    string          `json:"requested_role" validate:"required,notblank"`
	DataAccessScope  json.RawMessage `json:"data_access_scope"`
	Notes            string          `json:"notes"`
}

func (r *ProposeRequest) Sanitize() {
	r.PersonID = strings.TrimSpace(r.PersonID)
	r.TargetEntityID = strings.TrimSpace(r.TargetEntityID)
	r.TargetEntityType = strings.TrimSpace(r.TargetEntityType)
	r.RequestedRole = strings.TrimSpace(r.RequestedRole)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *ProposeRequest) Normalize() {
	r.TargetEntityType = strings.ToLower(r.TargetEntityType)
}

func (r *ProposeRequest) Validate() error {
	if err := validation.CheckStringLength("notes", r.Notes, validation.MaxNotesLength); err != nil {
		return err
	}
	if len(r.DataAccessScope) > validation.MaxScopeBytes {
		return dErrors.Newf(dErrors.CodeValidation, "data_access_scope exceeds %d bytes", validation.MaxScopeBytes)
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if _, err := id.ParseEntityKind(r.TargetEntityType); err != nil {
		return err
	}
	if !identity.ParseRole(r.RequestedRole).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.RequestedRole)
	}
	return nil
}

// Input converts the validated body. Validate has already checked every id.
func (r *ProposeRequest) Input() (service.ProposeInput, error) {
	entityID, err := id.ParseEntityID(r.TargetEntityID)
	if err != nil {
		return service.ProposeInput{}, err
	}
	kind, err := id.ParseEntityKind(r.TargetEntityType)
	if err != nil {
		return service.ProposeInput{}, err
	}
	in := service.ProposeInput{
		Target: id.EntityRef{Kind: kind, ID: entityID},
		Role:   identity.ParseRole(r.RequestedRole),
		Scope:  r.DataAccessScope,
		Notes:  r.Notes,
	}
	if r.PersonID != "" {
		if in.PersonID, err = id.ParsePersonID(r.PersonID); err != nil {
			return service.ProposeInput{}, err
		}
	}
	return in, nil
}

// DecideRequest answers a pending integration.
type DecideRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback"`
}

func (r *DecideRequest) Sanitize() {
	r.Decision = strings.TrimSpace(r.Decision)
	r.Feedback = strings.TrimSpace(r.Feedback)
}

func (r *DecideRequest) Normalize() { r.Decision = strings.ToLower(r.Decision) }

func (r *DecideRequest) Validate() error {
	if err := validation.CheckStringLength("feedback", r.Feedback, validation.MaxFeedbackLength); err != nil {
		return err
	}
	return validation.Validate(r)
}

func (r *DecideRequest) ParsedDecision() models.Decision { return models.Decision(r.Decision) }
