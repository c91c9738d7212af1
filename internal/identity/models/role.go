package models

import (
	"sort"
	"strings"
)

// Role is a closed enumeration of what a person can act as.
type Role string

const (
	RoleAthlete         Role = "athlete"
	RoleCoach           Role = "coach"
	RoleJudge           Role = "judge"
	RoleClubAdmin       Role = "club_admin"
	RoleSchoolAdmin     Role = "school_admin"
	RoleParent          Role = "parent"
	RoleFederationAdmin Role = "federation_admin"
	RoleEventOrganizer  Role = "event_organizer"
	RoleSupplier        Role = "supplier"
	RoleSuperAdmin      Role = "super_admin"
)

// UnassignedRoleCode is used in identity codes for roles outside the enumeration.
const UnassignedRoleCode = "00"

// roleCodes is the fixed two-digit mapping embedded in identity codes.
var roleCodes = map[Role]string{
	RoleAthlete:         "01",
	RoleCoach:           "02",
	RoleJudge:           "03",
	RoleClubAdmin:       "04",
	RoleSchoolAdmin:     "05",
	RoleParent:          "06",
	RoleFederationAdmin: "07",
	RoleEventOrganizer:  "08",
	RoleSupplier:        "09",
	RoleSuperAdmin:      "10",
}

// IsValid reports whether r belongs to the enumeration.
func (r Role) IsValid() bool {
	_, ok := roleCodes[r]
	return ok
}

// Requestable reports whether the role may be obtained through a role request.
// super_admin is provisioned out of band.
func (r Role) Requestable() bool {
	return r.IsValid() && r != RoleSuperAdmin
}

// Code returns the two-digit identity code prefix, "00" when unknown.
func (r Role) Code() string {
	if c, ok := roleCodes[r]; ok {
		return c
	}
	return UnassignedRoleCode
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes case and whitespace. Unknown values are returned as-is
// so callers decide between lenient and strict handling.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// AllRoles lists the enumeration in code order.
func AllRoles() []Role {
	roles := make([]Role, 0, len(roleCodes))
	for r := range roleCodes {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roleCodes[roles[i]] < roleCodes[roles[j]] })
	return roles
}

// RoleStatus is the standing of one held role.
type RoleStatus string

const (
	RoleStatusActive    RoleStatus = "active"
	RoleStatusSuspended RoleStatus = "suspended"
	RoleStatusPending   RoleStatus = "pending"
	RoleStatusInactive  RoleStatus = "inactive"
	RoleStatusDisabled  RoleStatus = "disabled"
	RoleStatusBlocked   RoleStatus = "blocked"
)

func (s RoleStatus) IsValid() bool {
	switch s {
	case RoleStatusActive, RoleStatusSuspended, RoleStatusPending,
		RoleStatusInactive, RoleStatusDisabled, RoleStatusBlocked:
		return true
	}
	return false
}
