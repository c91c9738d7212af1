// Package permission maps roles to permission sets and authority ranks.
//
// Tables are static. A person's effective permissions are always those of the
// active role of the call, never the union of every held role.
package permission

import (
	"sort"
	"strings"

	"clubid/internal/identity/models"
)

// Permission is a dot separated resource.action string.
type Permission string

const (
	Wildcard Permission = "*"

	RoleRequestSubmit Permission = "role_request.submit"
	RoleRequestReview Permission = "role_request.review"

	IntegrationPropose   Permission = "integration.propose"
	IntegrationDecideAny Permission = "integration.decide_any"

	AuditRead Permission = "audit.read"

	ProfileUpdate Permission = "profile.update"
	EntityManage  Permission = "entity.manage"
)

var memberPermissions = []Permission{RoleRequestSubmit, IntegrationPropose, ProfileUpdate}

var rolePermissions = map[models.Role][]Permission{
	models.RoleSuperAdmin:      {Wildcard},
	models.RoleFederationAdmin: {"role_request.*", "integration.*", AuditRead, ProfileUpdate, EntityManage},
	models.RoleClubAdmin:       {RoleRequestSubmit, IntegrationPropose, ProfileUpdate, EntityManage},
	models.RoleSchoolAdmin:     {RoleRequestSubmit, IntegrationPropose, ProfileUpdate, EntityManage},
	models.RoleEventOrganizer:  memberPermissions,
	models.RoleCoach:           memberPermissions,
	models.RoleJudge:           memberPermissions,
	models.RoleSupplier:        memberPermissions,
	models.RoleParent:          memberPermissions,
	models.RoleAthlete:         memberPermissions,
}

var roleRanks = map[models.Role]int{
	models.RoleSuperAdmin:      100,
	models.RoleFederationAdmin: 90,
	models.RoleClubAdmin:       70,
	models.RoleSchoolAdmin:     70,
	models.RoleEventOrganizer:  60,
	models.RoleJudge:           50,
	models.RoleCoach:           50,
	models.RoleSupplier:        30,
	models.RoleParent:          20,
	models.RoleAthlete:         10,
}

// Permissions returns a copy of the role's permission patterns. Unknown roles get none.
func Permissions(role models.Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Rank returns the authority rank of role, 0 when unknown.
func Rank(role models.Role) int {
	return roleRanks[role]
}

// Outranks reports Authority(a) >= Authority(b).
func Outranks(a, b models.Role) bool {
	return Rank(a) >= Rank(b)
}

// HasPermission reports whether role grants p, honoring "*" and "resource.*".
func HasPermission(role models.Role, p Permission) bool {
	for _, pattern := range rolePermissions[role] {
		if Match(pattern, p) {
			return true
		}
	}
	return false
}

// Match checks a pattern against a concrete permission. A "*" segment matches
// exactly one segment; "*" alone matches everything.
func Match(pattern, p Permission) bool {
	if pattern == p || pattern == Wildcard {
		return true
	}
	patternParts := strings.Split(string(pattern), ".")
	parts := strings.Split(string(p), ".")
	if len(patternParts) != len(parts) {
		return false
	}
	for i, pp := range patternParts {
		if pp != "*" && pp != parts[i] {
			return false
		}
	}
	return true
}

// Known lists every concrete permission, for expanding patterns in responses.
func Known() []Permission {
	return []Permission{
		RoleRequestSubmit, RoleRequestReview,
		IntegrationPropose, IntegrationDecideAny,
		AuditRead, ProfileUpdate, EntityManage,
	}
}

// Expand resolves the role's patterns into concrete known permissions, sorted.
func Expand(role models.Role) []Permission {
	var out []Permission
	for _, p := range Known() {
		if HasPermission(role, p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
