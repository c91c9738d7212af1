package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	entity "clubid/internal/entity/models"
	"clubid/internal/identity/handler/mocks"
	"clubid/internal/identity/models"
	"clubid/internal/identity/service"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
	"clubid/pkg/testutil"
)

type MeHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	person  *models.Person
}

func TestMeHandlerSuite(t *testing.T) {
	suite.Run(t, new(MeHandlerSuite))
}

func (s *MeHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.person = testutil.NewPersonBuilder().
		WithID(testutil.TestIDs.Person1).
		WithJurisdiction("3174").
		WithRole(models.RoleAthlete).
		WithRole(models.RoleCoach).
		WithDocument("SECRET-123").
		Build()
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *MeHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := requestcontext.WithPersonID(req.Context(), s.person.ID)
	ctx = requestcontext.WithActiveRole(ctx, "athlete")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func (s *MeHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code dErrors.Code) {
	s.Equal(status, w.Code)
	var resp httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(string(code), resp.Error)
}

func (s *MeHandlerSuite) TestProfile() {
	club := testutil.EntityRef(id.EntityClub, testutil.TestIDs.Club1)
	clubID := club.ID
	s.service.EXPECT().Profile(gomock.Any(), models.Actor{PersonID: s.person.ID, ActiveRole: models.RoleAthlete}).
		Return(&service.Profile{
			Person:      s.person,
			Memberships: []*entity.Membership{{Entity: club, PersonID: s.person.ID, Role: models.RoleAthlete, JoinedAt: testutil.FixedTime}},
			Athlete:     &entity.AthleteProfile{PersonID: s.person.ID, ClubID: &clubID},
		}, nil)

	w := s.do(http.MethodGet, "/me", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "SECRET-123")

	var resp PersonResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("athlete", resp.ActiveRole)
	s.Require().Len(resp.Roles, 2)
	s.Equal("athlete", resp.Roles[0].Role)
	s.Regexp(`^01\.0000\.\d{4,}$`, resp.Roles[0].IdentityCode)
	s.Require().Len(resp.Memberships, 1)
	s.Equal(club.ID.String(), resp.Athlete.ClubID)
	s.Empty(resp.Athlete.SchoolID)
}

func (s *MeHandlerSuite) TestSwitchRole() {
	s.Run("switches", func() {
		switched := s.person.Clone()
		s.Require().NoError(switched.SwitchActiveRole(models.RoleCoach, testutil.FixedTime))
		s.service.EXPECT().SwitchActiveRole(gomock.Any(), gomock.Any(), models.RoleCoach).Return(switched, nil)

		w := s.do(http.MethodPatch, "/me/active-role", SwitchRoleRequest{Role: " COACH "})
		s.Equal(http.StatusOK, w.Code)
		var resp PersonResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("coach", resp.ActiveRole)
	})

	s.Run("unknown role", func() {
		w := s.do(http.MethodPatch, "/me/active-role", SwitchRoleRequest{Role: "archer"})
		s.assertError(w, http.StatusBadRequest, dErrors.CodeValidation)
	})

	s.Run("role not active", func() {
		s.service.EXPECT().SwitchActiveRole(gomock.Any(), gomock.Any(), models.RoleJudge).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "role judge is not held with active status"))
		w := s.do(http.MethodPatch, "/me/active-role", SwitchRoleRequest{Role: "judge"})
		s.assertError(w, http.StatusForbidden, dErrors.CodeForbidden)
	})
}

func (s *MeHandlerSuite) TestIdentityDocument() {
	s.Run("reports suspended integrations", func() {
		s.service.EXPECT().UpdateIdentityDocument(gomock.Any(), gomock.Any(), "NEW-9", "renewed").Return(3, nil)
		w := s.do(http.MethodPut, "/me/identity-document", DocumentRequest{DocumentNumber: " NEW-9 ", Reason: "renewed"})
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"integrations_suspended":3}`, w.Body.String())
	})

	s.Run("document required", func() {
		w := s.do(http.MethodPut, "/me/identity-document", DocumentRequest{})
		s.assertError(w, http.StatusBadRequest, dErrors.CodeValidation)
	})
}

func (s *MeHandlerSuite) TestJurisdiction() {
	s.Run("null clears", func() {
		cleared := s.person.Clone()
		cleared.Jurisdiction = nil
		s.service.EXPECT().UpdateJurisdiction(gomock.Any(), gomock.Any(), (*string)(nil)).Return(cleared, nil)
		w := s.do(http.MethodPatch, "/me/jurisdiction", map[string]any{"jurisdiction": nil})
		s.Equal(http.StatusOK, w.Code)
		var resp PersonResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Nil(resp.Jurisdiction)
	})

	s.Run("over long", func() {
		long := "123456789012345678901234567890123"
		w := s.do(http.MethodPatch, "/me/jurisdiction", JurisdictionRequest{Jurisdiction: &long})
		s.assertError(w, http.StatusBadRequest, dErrors.CodeValidation)
	})
}
