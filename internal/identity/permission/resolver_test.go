package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clubid/internal/identity/models"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role models.Role
		perm Permission
		want bool
	}{
		{models.RoleSuperAdmin, RoleRequestReview, true},
		{models.RoleSuperAdmin, Permission("anything.at_all"), true},
		{models.RoleFederationAdmin, RoleRequestReview, true},
		{models.RoleFederationAdmin, IntegrationDecideAny, true},
		{models.RoleFederationAdmin, AuditRead, true},
		{models.RoleClubAdmin, RoleRequestReview, false},
		{models.RoleClubAdmin, EntityManage, true},
		{models.RoleAthlete, RoleRequestSubmit, true},
		{models.RoleAthlete, AuditRead, false},
		{models.Role("ghost"), RoleRequestSubmit, false},
		{models.Role(""), ProfileUpdate, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasPermission(tc.role, tc.perm), "%s -> %s", tc.role, tc.perm)
	}
}

func TestRankIsFailClosed(t *testing.T) {
	assert.Equal(t, 0, Rank(models.Role("ghost")))
	assert.Empty(t, Permissions(models.Role("ghost")))
	assert.True(t, Outranks(models.RoleFederationAdmin, models.RoleClubAdmin))
	assert.True(t, Outranks(models.RoleCoach, models.RoleJudge), "equal ranks outrank each other")
	assert.False(t, Outranks(models.RoleAthlete, models.RoleCoach))
	assert.False(t, Outranks(models.Role("ghost"), models.RoleAthlete))
}

// Every role in the enumeration has a rank and a permission entry.
func TestTablesCoverEnumeration(t *testing.T) {
	for _, r := range models.AllRoles() {
		assert.Positive(t, Rank(r), r)
		assert.NotEmpty(t, Permissions(r), r)
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("integration.*", IntegrationPropose))
	assert.True(t, Match("*.review", RoleRequestReview))
	assert.False(t, Match("integration.*", RoleRequestReview))
	assert.False(t, Match("integration.*", Permission("integration")))
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := Permissions(models.RoleAthlete)
	perms[0] = Wildcard
	assert.False(t, HasPermission(models.RoleAthlete, AuditRead))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, []Permission{IntegrationPropose, ProfileUpdate, RoleRequestSubmit}, Expand(models.RoleCoach))
	assert.Len(t, Expand(models.RoleSuperAdmin), len(Known()))
}
