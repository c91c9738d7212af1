package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "clubid/internal/identity/models"
	identitysvc "clubid/internal/identity/service"
	"clubid/internal/identity/store/person"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	trail "clubid/pkg/platform/audit"
	auditmemory "clubid/pkg/platform/audit/store/memory"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
	"clubid/pkg/testutil"
)

type fixture struct {
	router  chi.Router
	admin   *identity.Person
	athlete *identity.Person
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), testutil.FixedTime)
	persons := person.NewInMemoryStore()
	f := &fixture{
		admin:   testutil.NewPersonBuilder().WithRole(identity.RoleFederationAdmin).Build(),
		athlete: testutil.NewPersonBuilder().WithRole(identity.RoleAthlete).Build(),
	}
	require.NoError(t, persons.Create(ctx, f.admin))
	require.NoError(t, persons.Create(ctx, f.athlete))

	entries := trail.NewTrail(auditmemory.New())
	for _, action := range []string{"role_request_submitted", "role_request_approved", "integration_proposed"} {
		require.NoError(t, entries.Append(ctx, &trail.Entry{
			ActorID:     f.athlete.ID,
			SubjectType: trail.SubjectRoleRequest,
			SubjectID:   "rr-1",
			Action:      action,
		}))
	}

	f.router = chi.NewRouter()
	reader := NewReader(identitysvc.NewAuthorizer(persons), entries)
	NewHandler(reader, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(f.router)
	return f
}

func (f *fixture) get(path string, as id.PersonID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := requestcontext.WithPersonID(req.Context(), as)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func TestAuditEntries(t *testing.T) {
	f := newFixture(t)

	t.Run("newest first", func(t *testing.T) {
		w := f.get("/audit-entries?subject_id=rr-1", f.admin.ID)
		require.Equal(t, http.StatusOK, w.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 3)
		assert.Equal(t, "integration_proposed", resp.Entries[0].Action)
		assert.Equal(t, "role_request_submitted", resp.Entries[2].Action)
	})

	t.Run("filters by action and limit", func(t *testing.T) {
		w := f.get("/audit-entries?action=role_request_approved&actor_id="+f.athlete.ID.String()+"&limit=5", f.admin.ID)
		require.Equal(t, http.StatusOK, w.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, f.athlete.ID.String(), resp.Entries[0].ActorID)
	})

	t.Run("members lack audit.read", func(t *testing.T) {
		w := f.get("/audit-entries", f.athlete.ID)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w := f.get("/audit-entries", id.PersonID{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad query parameters", func(t *testing.T) {
		for _, q := range []string{"actor_id=nope", "limit=x", "since=yesterday"} {
			w := f.get("/audit-entries?"+q, f.admin.ID)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
			var resp httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(dErrors.CodeBadRequest), resp.Error)
		}
	})
}
