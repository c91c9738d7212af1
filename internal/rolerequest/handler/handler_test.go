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

	identity "clubid/internal/identity/models"
	"clubid/internal/rolerequest/handler/mocks"
	"clubid/internal/rolerequest/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
	"clubid/pkg/testutil"
)

type RoleRequestHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	caller  id.PersonID
}

func TestRoleRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RoleRequestHandlerSuite))
}

func (s *RoleRequestHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.caller = testutil.TestIDs.Person1
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RoleRequestHandlerSuite) do(method, path string, body any, role string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := requestcontext.WithPersonID(req.Context(), s.caller)
	ctx = requestcontext.WithActiveRole(ctx, role)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func (s *RoleRequestHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var resp httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(code, resp.Error)
}

func pendingRequest(person id.PersonID, role identity.Role) *models.Request {
	r, _ := models.NewRequest(person, role, []string{"https://docs.example.org/licence.pdf"}, testutil.FixedTime)
	return r
}

func (s *RoleRequestHandlerSuite) TestSubmit() {
	s.Run("creates with 201 and passes the token role", func() {
		expected := pendingRequest(s.caller, identity.RoleCoach)
		s.service.EXPECT().
			Submit(gomock.Any(), identity.Actor{PersonID: s.caller, ActiveRole: identity.RoleAthlete}, identity.RoleCoach,
				[]string{"https://docs.example.org/licence.pdf"}).
			Return(expected, nil)

		w := s.do(http.MethodPost, "/role-requests", SubmitRequest{
			RequestedRole: " Coach ",
			EvidenceRefs:  []string{"https://docs.example.org/licence.pdf", "https://docs.example.org/licence.pdf"},
		}, "athlete")

		s.Equal(http.StatusCreated, w.Code)
		var resp RoleRequestResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(expected.ID.String(), resp.ID)
		s.Equal("pending", resp.Status)
		s.Empty(resp.IssuedCode)
	})

	s.Run("unknown role is a validation error", func() {
		w := s.do(http.MethodPost, "/role-requests", SubmitRequest{RequestedRole: "archer"}, "")
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("evidence must be urls", func() {
		w := s.do(http.MethodPost, "/role-requests", SubmitRequest{
			RequestedRole: "coach",
			EvidenceRefs:  []string{"not a url"},
		}, "")
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("malformed body is a bad request", func() {
		req := httptest.NewRequest(http.MethodPost, "/role-requests", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("duplicate maps to 409", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any(), identity.RoleJudge, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "a pending request for role judge already exists"))
		w := s.do(http.MethodPost, "/role-requests", SubmitRequest{RequestedRole: "judge"}, "")
		s.assertError(w, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *RoleRequestHandlerSuite) TestDecisions() {
	requestID := id.NewRoleRequestID()

	s.Run("approve returns the issued code", func() {
		approved := pendingRequest(testutil.TestIDs.Person2, identity.RoleEventOrganizer)
		s.Require().NoError(approved.Approve(s.caller, "08.3174.0001", testutil.FixedTime))
		s.service.EXPECT().Approve(gomock.Any(), gomock.Any(), requestID).Return(approved, nil)

		w := s.do(http.MethodPatch, "/role-requests/"+requestID.String()+"/approve", nil, "federation_admin")
		s.Equal(http.StatusOK, w.Code)
		var resp RoleRequestResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("08.3174.0001", resp.IssuedCode)
		s.Equal(s.caller.String(), resp.ReviewerID)
	})

	s.Run("terminal request maps to 409 invalid_state", func() {
		s.service.EXPECT().Approve(gomock.Any(), gomock.Any(), requestID).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "role request is already approved"))
		w := s.do(http.MethodPatch, "/role-requests/"+requestID.String()+"/approve", nil, "federation_admin")
		s.assertError(w, http.StatusConflict, string(dErrors.CodeInvalidState))
	})

	s.Run("forbidden maps to 403", func() {
		s.service.EXPECT().Approve(gomock.Any(), gomock.Any(), requestID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "active role lacks role_request.review"))
		w := s.do(http.MethodPatch, "/role-requests/"+requestID.String()+"/approve", nil, "athlete")
		s.assertError(w, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("invalid id is a bad request", func() {
		w := s.do(http.MethodPatch, "/role-requests/nope/approve", nil, "federation_admin")
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("reject requires a reason", func() {
		w := s.do(http.MethodPatch, "/role-requests/"+requestID.String()+"/reject", RejectRequest{Reason: "  "}, "federation_admin")
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("reject passes the trimmed reason", func() {
		rejected := pendingRequest(testutil.TestIDs.Person2, identity.RoleCoach)
		s.Require().NoError(rejected.Reject(s.caller, "expired licence", testutil.FixedTime))
		s.service.EXPECT().Reject(gomock.Any(), gomock.Any(), requestID, "expired licence").Return(rejected, nil)

		w := s.do(http.MethodPatch, "/role-requests/"+requestID.String()+"/reject", RejectRequest{Reason: " expired licence "}, "federation_admin")
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *RoleRequestHandlerSuite) TestListing() {
	s.Run("list mine", func() {
		s.service.EXPECT().ListMine(gomock.Any(), gomock.Any()).
			Return([]*models.Request{pendingRequest(s.caller, identity.RoleCoach)}, nil)
		w := s.do(http.MethodGet, "/role-requests", nil, "")
		s.Equal(http.StatusOK, w.Code)
		var resp ListResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.RoleRequests, 1)
	})

	s.Run("pending route is not captured by the id route", func() {
		s.service.EXPECT().ListPending(gomock.Any(), gomock.Any(), 25).Return(nil, nil)
		w := s.do(http.MethodGet, "/role-requests/pending?limit=25", nil, "federation_admin")
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"role_requests":[]}`, w.Body.String())
	})

	s.Run("bad limit", func() {
		w := s.do(http.MethodGet, "/role-requests/pending?limit=-1", nil, "federation_admin")
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("get not found", func() {
		requestID := id.NewRoleRequestID()
		s.service.EXPECT().Get(gomock.Any(), gomock.Any(), requestID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "role request not found"))
		w := s.do(http.MethodGet, "/role-requests/"+requestID.String(), nil, "")
		s.assertError(w, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}
