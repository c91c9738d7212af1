package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newRequest(t *testing.T) *Request {
	t.Helper()
	person := id.NewPersonID()
	r, err := NewRequest(person, id.EntityRef{Kind: id.EntityClub, ID: id.NewEntityID()},
		identity.RoleAthlete, nil, "joining for the spring season", person, now)
	require.NoError(t, err)
	return r
}

func TestNewRequest(t *testing.T) {
	r := newRequest(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.SelfInitiated())
	assert.JSONEq(t, `{}`, string(r.Scope))

	_, err := NewRequest(id.NewPersonID(), id.EntityRef{Kind: "league", ID: id.NewEntityID()},
		identity.RoleAthlete, nil, "", id.NewPersonID(), now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestLifecycle(t *testing.T) {
	t.Run("approve then reconsent then reaffirm", func(t *testing.T) {
		r := newRequest(t)
		admin := id.NewPersonID()
		require.NoError(t, r.Decide(DecisionApproved, admin, "welcome", now))
		assert.True(t, r.AccessGranted())
		assert.Equal(t, "joining for the spring season\n\nFeedback: welcome", r.Notes)
		assert.Equal(t, admin, r.DecidedBy)

		require.NoError(t, r.SuspendForReconsent("identity document changed", now.Add(time.Hour)))
		assert.False(t, r.AccessGranted())
		assert.Equal(t, StatusRevokedPendingReconsent, r.Status)
		require.NotNil(t, r.ReconsentRequestedAt)

		require.NoError(t, r.Reaffirm(now.Add(2*time.Hour)))
		assert.True(t, r.AccessGranted())
	})

	t.Run("withdraw is terminal", func(t *testing.T) {
		r := newRequest(t)
		require.NoError(t, r.Decide(DecisionApproved, id.NewPersonID(), "", now))
		require.NoError(t, r.SuspendForReconsent("changed", now))
		require.NoError(t, r.Withdraw(now))
		assert.Equal(t, StatusRevoked, r.Status)
		assert.True(t, dErrors.HasCode(r.Reaffirm(now), dErrors.CodeInvalidState))
	})

	t.Run("decided requests cannot be decided again", func(t *testing.T) {
		r := newRequest(t)
		require.NoError(t, r.Decide(DecisionRejected, id.NewPersonID(), "", now))
		assert.Equal(t, "joining for the spring season", r.Notes)
		assert.True(t, dErrors.HasCode(r.Decide(DecisionApproved, id.NewPersonID(), "", now), dErrors.CodeInvalidState))
	})

	t.Run("only approved requests are suspended", func(t *testing.T) {
		r := newRequest(t)
		assert.True(t, dErrors.HasCode(r.SuspendForReconsent("x", now), dErrors.CodeInvalidState))
		assert.True(t, dErrors.HasCode(r.Withdraw(now), dErrors.CodeInvalidState))
	})
}

func TestSupersede(t *testing.T) {
	t.Run("approved and suspended links can be superseded", func(t *testing.T) {
		approved := newRequest(t)
		require.NoError(t, approved.Decide(DecisionApproved, id.NewPersonID(), "", now))
		assert.True(t, approved.HoldsMembership())
		require.NoError(t, approved.Supersede(now.Add(time.Hour)))
		assert.Equal(t, StatusRevoked, approved.Status)
		assert.False(t, approved.HoldsMembership())

		suspended := newRequest(t)
		require.NoError(t, suspended.Decide(DecisionApproved, id.NewPersonID(), "", now))
		require.NoError(t, suspended.SuspendForReconsent("changed", now))
		assert.True(t, suspended.HoldsMembership())
		require.NoError(t, suspended.Supersede(now))
		assert.Equal(t, StatusRevoked, suspended.Status)
	})

	t.Run("pending and rejected links hold nothing", func(t *testing.T) {
		pending := newRequest(t)
		assert.False(t, pending.HoldsMembership())
		assert.True(t, dErrors.HasCode(pending.Supersede(now), dErrors.CodeInvalidState))

		rejected := newRequest(t)
		require.NoError(t, rejected.Decide(DecisionRejected, id.NewPersonID(), "", now))
		assert.True(t, dErrors.HasCode(rejected.Supersede(now), dErrors.CodeInvalidState))
	})
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, d)

	_, err = ParseDecision("maybe")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCloneIsDeep(t *testing.T) {
	r := newRequest(t)
	r.Scope = json.RawMessage(`{"results":true}`)
	require.NoError(t, r.Decide(DecisionApproved, id.NewPersonID(), "", now))

	c := r.Clone()
	c.Scope[2] = 'X'
	*c.DecidedAt = now.Add(time.Hour)
	assert.JSONEq(t, `{"results":true}`, string(r.Scope))
	assert.Equal(t, now, *r.DecidedAt)
}
