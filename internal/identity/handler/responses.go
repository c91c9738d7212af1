package handler

import (
	"time"

	entity "clubid/internal/entity/models"
	"clubid/internal/identity/models"
	"clubid/internal/identity/service"
)

type RoleResponse struct {
	Role         string `json:"role"`
	Status       string `json:"status"`
	IdentityCode string `json:"identity_code"`
}

type MembershipResponse struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
}

type AthleteResponse struct {
	ClubID   string `json:"club_id,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
}

// PersonResponse never carries the identity document.
type PersonResponse struct {
	ID                string               `json:"id"`
	DisplayName       string               `json:"display_name"`
	Jurisdiction      *string              `json:"jurisdiction"`
	ActiveRole        string               `json:"active_role,omitempty"`
	Roles             []RoleResponse       `json:"roles"`
	PrimaryEntityType string               `json:"primary_entity_type,omitempty"`
	PrimaryEntityID   string               `json:"primary_entity_id,omitempty"`
	Memberships       []MembershipResponse `json:"memberships,omitempty"`
	Athlete           *AthleteResponse     `json:"athlete,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type DocumentResponse struct {
	IntegrationsSuspended int `json:"integrations_suspended"`
}

func toPersonResponse(p *models.Person) *PersonResponse {
	resp := &PersonResponse{
		ID:           p.ID.String(),
		DisplayName:  p.DisplayName,
		Jurisdiction: p.Jurisdiction,
		ActiveRole:   string(p.ActiveRole),
		Roles:        make([]RoleResponse, 0, len(p.Roles)),
		UpdatedAt:    p.UpdatedAt,
	}
	for _, r := range p.RoleList() {
		g := p.Roles[r]
		resp.Roles = append(resp.Roles, RoleResponse{
			Role:         string(r),
			Status:       string(g.Status),
			IdentityCode: g.Code.String(),
		})
	}
	if p.PrimaryEntity != nil {
		resp.PrimaryEntityType = string(p.PrimaryEntity.Kind)
		resp.PrimaryEntityID = p.PrimaryEntity.ID.String()
	}
	return resp
}

func toProfileResponse(profile *service.Profile) *PersonResponse {
	resp := toPersonResponse(profile.Person)
	for _, m := range profile.Memberships {
		resp.Memberships = append(resp.Memberships, MembershipResponse{
			EntityType: string(m.Entity.Kind),
			EntityID:   m.Entity.ID.String(),
			Role:       string(m.Role),
			JoinedAt:   m.JoinedAt,
		})
	}
	if profile.Athlete != nil {
		resp.Athlete = toAthleteResponse(profile.Athlete)
	}
	return resp
}

func toAthleteResponse(a *entity.AthleteProfile) *AthleteResponse {
	out := &AthleteResponse{}
	if a.ClubID != nil {
		out.ClubID = a.ClubID.String()
	}
	if a.SchoolID != nil {
		out.SchoolID = a.SchoolID.String()
	}
	return out
}
