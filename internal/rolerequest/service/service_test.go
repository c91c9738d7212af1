package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clubid/internal/identity/code"
	identity "clubid/internal/identity/models"
	identitysvc "clubid/internal/identity/service"
	"clubid/internal/identity/store/person"
	"clubid/internal/identity/store/sequence"
	"clubid/internal/notify"
	"clubid/internal/notify/mocks"
	"clubid/internal/rolerequest/models"
	"clubid/internal/rolerequest/store"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/audit"
	auditmemory "clubid/pkg/platform/audit/store/memory"
	"clubid/pkg/platform/tx"
	"clubid/pkg/requestcontext"
	"clubid/pkg/testutil"
)

var codePattern = regexp.MustCompile(`^\d{2}\.\d{4}\.\d{4,}$`)

type RoleRequestServiceSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	dispatcher *mocks.MockDispatcher
	persons    *person.InMemoryStore
	requests   *store.InMemory
	auditStore *auditmemory.Store
	service    *Service
	reviewer   *identity.Person
}

func TestRoleRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleRequestServiceSuite))
}

func (s *RoleRequestServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), testutil.FixedTime)
	s.ctrl = gomock.NewController(s.T())
	s.dispatcher = mocks.NewMockDispatcher(s.ctrl)
	s.persons = person.NewInMemoryStore()
	s.requests = store.NewInMemory()
	s.auditStore = auditmemory.New()

	s.service = New(
		s.requests,
		s.persons,
		identitysvc.NewAuthorizer(s.persons),
		code.NewIssuer(sequence.NewInMemoryStore()),
		tx.NewMemory(),
		audit.NewTrail(s.auditStore),
		WithDispatcher(s.dispatcher),
	)

	s.reviewer = s.addPerson(testutil.NewPersonBuilder().WithName("Reviewer").WithRole(identity.RoleFederationAdmin))
}

func (s *RoleRequestServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RoleRequestServiceSuite) addPerson(b *testutil.PersonBuilder) *identity.Person {
	p := b.Build()
	s.Require().NoError(s.persons.Create(s.ctx, p))
	return p
}

func (s *RoleRequestServiceSuite) applicant(jurisdiction string) *identity.Person {
	b := testutil.NewPersonBuilder().WithName("Applicant")
	if jurisdiction != "" {
		b = b.WithJurisdiction(jurisdiction)
	}
	return s.addPerson(b)
}

func (s *RoleRequestServiceSuite) reviewerActor() identity.Actor {
	return testutil.ActorFor(s.reviewer, identity.RoleFederationAdmin)
}

func (s *RoleRequestServiceSuite) expectDecisionNotice(recipient id.PersonID) {
	s.dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n notify.Notification) error {
			s.Equal(notify.KindRoleRequestDecided, n.Kind)
			s.Equal(recipient, n.RecipientID)
			return nil
		})
}

func (s *RoleRequestServiceSuite) submit(p *identity.Person, role identity.Role) *models.Request {
	req, err := s.service.Submit(s.ctx, identity.Actor{PersonID: p.ID}, role, []string{"licence.pdf"})
	s.Require().NoError(err)
	return req
}

func (s *RoleRequestServiceSuite) TestApprovalIssuesSequentialCodes() {
	first := s.applicant("3174")
	second := s.applicant("3174")
	r1 := s.submit(first, identity.RoleEventOrganizer)
	r2 := s.submit(second, identity.RoleEventOrganizer)

	s.expectDecisionNotice(first.ID)
	s.expectDecisionNotice(second.ID)

	got1, err := s.service.Approve(s.ctx, s.reviewerActor(), r1.ID)
	s.Require().NoError(err)
	got2, err := s.service.Approve(s.ctx, s.reviewerActor(), r2.ID)
	s.Require().NoError(err)

	s.Equal(identity.IdentityCode("08.3174.0001"), got1.IssuedCode)
	s.Equal(identity.IdentityCode("08.3174.0002"), got2.IssuedCode)
	s.Equal(models.StatusApproved, got1.Status)
	s.Equal(s.reviewer.ID, got1.ReviewerID)
	s.NotNil(got1.DecidedAt)

	stored, err := s.persons.FindByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.True(stored.HoldsActive(identity.RoleEventOrganizer))
	held, ok := stored.CodeFor(identity.RoleEventOrganizer)
	s.True(ok)
	s.Equal(got1.IssuedCode, held)
	s.Equal(identity.RoleEventOrganizer, stored.ActiveRole)
}

func (s *RoleRequestServiceSuite) TestMissingJurisdictionUsesDefaultCode() {
	p := s.applicant("")
	req := s.submit(p, identity.RoleCoach)
	s.expectDecisionNotice(p.ID)

	got, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.Require().NoError(err)
	s.Equal(identity.IdentityCode("02.0000.0001"), got.IssuedCode)
	s.Regexp(codePattern, got.IssuedCode.String())
}

func (s *RoleRequestServiceSuite) TestApprovalIsAudited() {
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleJudge)
	s.expectDecisionNotice(p.ID)

	_, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.Require().NoError(err)

	entries, err := s.auditStore.Query(s.ctx, audit.Filter{SubjectID: req.ID.String()})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(models.ActionApproved, entries[0].Action)
	s.Equal(s.reviewer.ID, entries[0].ActorID)
	s.Equal("03.3174.0001", entries[0].Detail["code"])
	s.Equal(models.ActionSubmitted, entries[1].Action)
	s.Equal(p.ID, entries[1].ActorID)
}

func (s *RoleRequestServiceSuite) TestRejection() {
	s.Run("records reason and leaves roles untouched", func() {
		p := s.applicant("3174")
		req := s.submit(p, identity.RoleSupplier)
		s.expectDecisionNotice(p.ID)

		got, err := s.service.Reject(s.ctx, s.reviewerActor(), req.ID, "  licence expired ")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, got.Status)
		s.Equal("licence expired", got.RejectionReason)
		s.Empty(got.IssuedCode)

		stored, err := s.persons.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.False(stored.HasRole(identity.RoleSupplier))
	})

	s.Run("reason is required", func() {
		p := s.applicant("3174")
		req := s.submit(p, identity.RoleSupplier)

		_, err := s.service.Reject(s.ctx, s.reviewerActor(), req.ID, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RoleRequestServiceSuite) TestTerminalRequestIsInvalidState() {
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleCoach)
	s.expectDecisionNotice(p.ID)
	_, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.Require().NoError(err)
	before := s.auditStore.Len()

	s.Run("approve again", func() {
		_, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("reject after approval", func() {
		_, err := s.service.Reject(s.ctx, s.reviewerActor(), req.ID, "changed my mind")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("state is reported before authorization", func() {
		outsider := s.addPerson(testutil.NewPersonBuilder().WithRole(identity.RoleAthlete))
		_, err := s.service.Approve(s.ctx, testutil.ActorFor(outsider, identity.RoleAthlete), req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Equal(before, s.auditStore.Len())
	stored, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status)
}

func (s *RoleRequestServiceSuite) TestReviewRequiresPermission() {
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleCoach)

	s.Run("club admin cannot review", func() {
		clubAdmin := s.addPerson(testutil.NewPersonBuilder().WithRole(identity.RoleClubAdmin))
		_, err := s.service.Approve(s.ctx, testutil.ActorFor(clubAdmin, identity.RoleClubAdmin), req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("suspended reviewer role is not honored", func() {
		suspended := s.addPerson(testutil.NewPersonBuilder().
			WithRole(identity.RoleAthlete).
			WithRoleStatus(identity.RoleFederationAdmin, identity.RoleStatusSuspended))
		_, err := s.service.Approve(s.ctx, testutil.ActorFor(suspended, identity.RoleFederationAdmin), req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown reviewer is unauthorized", func() {
		_, err := s.service.Approve(s.ctx, identity.Actor{PersonID: id.NewPersonID()}, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing request is not found", func() {
		_, err := s.service.Approve(s.ctx, s.reviewerActor(), id.NewRoleRequestID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	stored, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.True(stored.IsPending())
	s.Equal(1, s.auditStore.Len())
}

func (s *RoleRequestServiceSuite) TestSubmitValidation() {
	p := s.applicant("3174")
	actor := identity.Actor{PersonID: p.ID}

	cases := []struct {
		name string
		role identity.Role
		code dErrors.Code
	}{
		{"empty role", "", dErrors.CodeValidation},
		{"unknown role", "archer", dErrors.CodeValidation},
		{"super admin is provisioned only", identity.RoleSuperAdmin, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Submit(s.ctx, actor, tc.role, nil)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	s.Run("missing actor", func() {
		_, err := s.service.Submit(s.ctx, identity.Actor{}, identity.RoleCoach, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("evidence is deduplicated", func() {
		req, err := s.service.Submit(s.ctx, actor, identity.RoleParent, []string{" a.pdf", "a.pdf ", "", "b.pdf"})
		s.Require().NoError(err)
		s.Equal([]string{"a.pdf", "b.pdf"}, req.EvidenceRefs)
	})
}

func (s *RoleRequestServiceSuite) TestSubmitConflicts() {
	s.Run("duplicate pending request", func() {
		p := s.applicant("3174")
		s.submit(p, identity.RoleCoach)
		_, err := s.service.Submit(s.ctx, identity.Actor{PersonID: p.ID}, identity.RoleCoach, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("role already held", func() {
		p := s.addPerson(testutil.NewPersonBuilder().WithRole(identity.RoleCoach))
		_, err := s.service.Submit(s.ctx, identity.Actor{PersonID: p.ID}, identity.RoleCoach, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("suspended role may be requested again", func() {
		p := s.addPerson(testutil.NewPersonBuilder().
			WithRole(identity.RoleAthlete).
			WithRoleStatus(identity.RoleCoach, identity.RoleStatusSuspended))
		_, err := s.service.Submit(s.ctx, identity.Actor{PersonID: p.ID}, identity.RoleCoach, nil)
		s.NoError(err)
	})

	s.Run("new request after rejection", func() {
		p := s.applicant("3174")
		req := s.submit(p, identity.RoleJudge)
		s.expectDecisionNotice(p.ID)
		_, err := s.service.Reject(s.ctx, s.reviewerActor(), req.ID, "missing certificate")
		s.Require().NoError(err)

		_, err = s.service.Submit(s.ctx, identity.Actor{PersonID: p.ID}, identity.RoleJudge, nil)
		s.NoError(err)
	})
}

func (s *RoleRequestServiceSuite) TestReapprovalReplacesCode() {
	p := s.addPerson(testutil.NewPersonBuilder().
		WithJurisdiction("3174").
		WithRole(identity.RoleAthlete).
		WithRoleStatus(identity.RoleCoach, identity.RoleStatusSuspended))
	oldCode, _ := p.CodeFor(identity.RoleCoach)
	req := s.submit(p, identity.RoleCoach)
	s.expectDecisionNotice(p.ID)

	got, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.Require().NoError(err)
	s.NotEqual(oldCode, got.IssuedCode)

	stored, err := s.persons.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(stored.HoldsActive(identity.RoleCoach))
	held, _ := stored.CodeFor(identity.RoleCoach)
	s.Equal(got.IssuedCode, held)

	entries, err := s.auditStore.Query(s.ctx, audit.Filter{SubjectID: req.ID.String(), Action: models.ActionApproved})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(oldCode.String(), entries[0].Detail["previous_code"])
}

func (s *RoleRequestServiceSuite) TestListingAndVisibility() {
	p := s.applicant("3174")
	other := s.applicant("3174")
	mine := s.submit(p, identity.RoleCoach)
	s.submit(other, identity.RoleCoach)

	s.Run("list mine", func() {
		got, err := s.service.ListMine(s.ctx, identity.Actor{PersonID: p.ID})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(mine.ID, got[0].ID)
	})

	s.Run("pending queue for reviewers", func() {
		got, err := s.service.ListPending(s.ctx, s.reviewerActor(), 0)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("pending queue denied to members", func() {
		_, err := s.service.ListPending(s.ctx, identity.Actor{PersonID: p.ID}, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner and reviewer can read", func() {
		_, err := s.service.Get(s.ctx, identity.Actor{PersonID: p.ID}, mine.ID)
		s.NoError(err)
		_, err = s.service.Get(s.ctx, s.reviewerActor(), mine.ID)
		s.NoError(err)
	})

	s.Run("other members cannot read", func() {
		_, err := s.service.Get(s.ctx, identity.Actor{PersonID: other.ID}, mine.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *RoleRequestServiceSuite) TestDispatchFailureDoesNotFailDecision() {
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleCoach)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(dErrors.New(dErrors.CodeInternal, "broker down"))

	got, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
}

func (s *RoleRequestServiceSuite) TestTransactionalDispatchFailureFailsDecision() {
	uow := mocks.NewMockUnitOfWorkDispatcher(s.ctrl)
	svc := New(s.requests, s.persons, identitysvc.NewAuthorizer(s.persons),
		code.NewIssuer(sequence.NewInMemoryStore()), tx.NewMemory(), audit.NewTrail(s.auditStore),
		WithDispatcher(uow))
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleCoach)
	uow.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(dErrors.New(dErrors.CodeInternal, "outbox unavailable"))

	_, err := svc.Approve(s.ctx, s.reviewerActor(), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *RoleRequestServiceSuite) TestConcurrentDecisionsHaveOneWinner() {
	p := s.applicant("3174")
	req := s.submit(p, identity.RoleCoach)
	s.expectDecisionNotice(p.ID)

	result := testutil.RunConcurrent(10, func(idx int) error {
		if idx%2 == 0 {
			_, err := s.service.Approve(s.ctx, s.reviewerActor(), req.ID)
			return err
		}
		_, err := s.service.Reject(s.ctx, s.reviewerActor(), req.ID, "duplicate")
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.InvalidStates)
	s.Equal(int32(0), result.Errors)

	decisions, err := s.auditStore.Query(s.ctx, audit.Filter{SubjectID: req.ID.String()})
	s.Require().NoError(err)
	s.Len(decisions, 2)
}

func TestConcurrentApprovalsIssueDistinctCodes(t *testing.T) {
	ctx := context.Background()
	persons := person.NewInMemoryStore()
	requests := store.NewInMemory()
	svc := New(requests, persons, identitysvc.NewAuthorizer(persons),
		code.NewIssuer(sequence.NewInMemoryStore()), tx.NewMemory(), audit.NewTrail(auditmemory.New()))

	reviewer := testutil.NewPersonBuilder().WithRole(identity.RoleSuperAdmin).Build()
	if err := persons.Create(ctx, reviewer); err != nil {
		t.Fatal(err)
	}

	const n = 20
	ids := make([]id.RoleRequestID, n)
	for i := range n {
		p := testutil.NewPersonBuilder().WithJurisdiction("3174").Build()
		if err := persons.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		req, err := svc.Submit(ctx, identity.Actor{PersonID: p.ID}, identity.RoleAthlete, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = req.ID
	}

	var mu sync.Mutex
	seen := make(map[identity.IdentityCode]bool)
	result := testutil.RunConcurrent(n, func(idx int) error {
		req, err := svc.Approve(ctx, identity.Actor{PersonID: reviewer.ID}, ids[idx])
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if seen[req.IssuedCode] {
			t.Errorf("code %s issued twice", req.IssuedCode)
		}
		seen[req.IssuedCode] = true
		return nil
	})

	if result.Successes != n {
		t.Fatalf("expected %d approvals, got %+v", n, result)
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct codes, got %d", n, len(seen))
	}
	for c := range seen {
		if !codePattern.MatchString(c.String()) {
			t.Errorf("malformed code %s", c)
		}
	}
}
