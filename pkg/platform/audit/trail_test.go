package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "clubid/pkg/domain"
	"clubid/pkg/platform/audit"
	"clubid/pkg/platform/audit/store/memory"
	"clubid/pkg/requestcontext"
)

type TrailSuite struct {
	suite.Suite
	store *memory.Store
	trail *audit.Trail
}

func TestTrailSuite(t *testing.T) {
	suite.Run(t, new(TrailSuite))
}

func (s *TrailSuite) SetupTest() {
	s.store = memory.New()
	s.trail = audit.NewTrail(s.store)
}

func (s *TrailSuite) TestAppendStampsEntry() {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-1")
	actor := id.NewPersonID()

	entry := &audit.Entry{ActorID: actor, SubjectType: audit.SubjectRoleRequest, SubjectID: "rr-1", Action: "role_request_approved"}
	s.Require().NoError(s.trail.Append(ctx, entry))

	s.NotEmpty(entry.ID)
	s.Equal(now, entry.Timestamp)
	s.Equal("req-1", entry.RequestID)

	got, err := s.trail.Query(ctx, audit.Filter{SubjectID: "rr-1"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(actor, got[0].ActorID)
}

func (s *TrailSuite) TestQueryFiltersNewestFirst() {
	ctx := context.Background()
	alice, bob := id.NewPersonID(), id.NewPersonID()
	base := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	for i, e := range []audit.Entry{
		{ActorID: alice, SubjectID: "ir-1", Action: "integration_proposed"},
		{ActorID: bob, SubjectID: "ir-1", Action: "integration_approved"},
		{ActorID: alice, SubjectID: "ir-2", Action: "integration_proposed"},
	} {
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.trail.Append(ctx, &e))
	}

	byAlice, err := s.trail.Query(ctx, audit.Filter{ActorID: alice})
	s.Require().NoError(err)
	s.Require().Len(byAlice, 2)
	s.Equal("ir-2", byAlice[0].SubjectID)

	approved, err := s.trail.Query(ctx, audit.Filter{Action: "integration_approved"})
	s.Require().NoError(err)
	s.Len(approved, 1)

	since, err := s.trail.Query(ctx, audit.Filter{Since: base.Add(90 * time.Second)})
	s.Require().NoError(err)
	s.Len(since, 1)

	limited, err := s.trail.Query(ctx, audit.Filter{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

type brokenStore struct{}

func (brokenStore) Append(context.Context, *audit.Entry) error {
	return errors.New("disk full")
}

func (brokenStore) Query(context.Context, audit.Filter) ([]audit.Entry, error) {
	return nil, nil
}

func TestTrail_AppendFailureIsReturned(t *testing.T) {
	trail := audit.NewTrail(brokenStore{})
	err := trail.Append(context.Background(), &audit.Entry{Action: "role_request_rejected"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role_request_rejected")
}

func TestFilter_EffectiveLimit(t *testing.T) {
	assert.Equal(t, audit.DefaultQueryLimit, audit.Filter{}.EffectiveLimit())
	assert.Equal(t, audit.MaxQueryLimit, audit.Filter{Limit: 5000}.EffectiveLimit())
	assert.Equal(t, 7, audit.Filter{Limit: 7}.EffectiveLimit())
}

func TestNewEntryID_SortsByTime(t *testing.T) {
	t0 := time.Now()
	a := audit.NewEntryID(t0)
	b := audit.NewEntryID(t0.Add(time.Millisecond))
	assert.Less(t, a, b)
}
