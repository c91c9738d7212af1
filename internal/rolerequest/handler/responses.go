package handler

import (
	"time"

	"clubid/internal/rolerequest/models"
)

// RoleRequestResponse is one role request in HTTP responses.
type RoleRequestResponse struct {
	ID              string     `json:"id"`
	PersonID        string     `json:"person_id"`
	RequestedRole   string     `json:"requested_role"`
	EvidenceRefs    []string   `json:"evidence_refs"`
	Status          string     `json:"status"`
	ReviewerID      string     `json:"reviewer_id,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	IssuedCode      string     `json:"issued_code,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ListResponse struct {
	RoleRequests []*RoleRequestResponse `json:"role_requests"`
}

func toResponse(r *models.Request) *RoleRequestResponse {
	resp := &RoleRequestResponse{
		ID:              r.ID.String(),
		PersonID:        r.PersonID.String(),
		RequestedRole:   string(r.Role),
		EvidenceRefs:    r.EvidenceRefs,
		Status:          string(r.Status),
		DecidedAt:       r.DecidedAt,
		RejectionReason: r.RejectionReason,
		IssuedCode:      r.IssuedCode.String(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if !r.ReviewerID.IsNil() {
		resp.ReviewerID = r.ReviewerID.String()
	}
	if resp.EvidenceRefs == nil {
		resp.EvidenceRefs = []string{}
	}
	return resp
}

func toListResponse(reqs []*models.Request) *ListResponse {
	out := make([]*RoleRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toResponse(r))
	}
	return &ListResponse{RoleRequests: out}
}
