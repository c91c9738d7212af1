package handler

import (
	"encoding/json"
	"time"

	"clubid/internal/integration/models"
)

type IntegrationRequestResponse struct {
	ID                   string          `json:"id"`
	PersonID             string          `json:"person_id"`
	TargetEntityID       string          `json:"target_entity_id"`
	TargetEntityType     string          `json:"target_entity_type"`
	RequestedRole        string          `json:"requested_role"`
	DataAccessScope      json.RawMessage `json:"data_access_scope"`
	Notes                string          `json:"notes,omitempty"`
	Status               string          `json:"status"`
	InitiatedBy          string          `json:"initiated_by"`
	DecidedBy            string          `json:"decided_by,omitempty"`
	DecidedAt            *time.Time      `json:"decided_at,omitempty"`
	ReconsentReason      string          `json:"reconsent_reason,omitempty"`
	ReconsentRequestedAt *time.Time      `json:"reconsent_requested_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type ListResponse struct {
	IntegrationRequests []*IntegrationRequestResponse `json:"integration_requests"`
}

func toResponse(r *models.Request) *IntegrationRequestResponse {
	resp := &IntegrationRequestResponse{
		ID:                   r.ID.String(),
		PersonID:             r.PersonID.String(),
		TargetEntityID:       r.Target.ID.String(),
		TargetEntityType:     string(r.Target.Kind),
		RequestedRole:        string(r.Role),
		DataAccessScope:      r.Scope,
		Notes:                r.Notes,
		Status:               string(r.Status),
		InitiatedBy:          r.InitiatedBy.String(),
		DecidedAt:            r.DecidedAt,
		ReconsentReason:      r.ReconsentReason,
		ReconsentRequestedAt: r.ReconsentRequestedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if !r.DecidedBy.IsNil() {
		resp.DecidedBy = r.DecidedBy.String()
	}
	if len(resp.DataAccessScope) == 0 {
		resp.DataAccessScope = json.RawMessage(`{}`)
	}
	return resp
}

func toListResponse(reqs []*models.Request) *ListResponse {
	out := make([]*IntegrationRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toResponse(r))
	}
	return &ListResponse{IntegrationRequests: out}
}
