package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clubid/pkg/domain"
	"clubid/pkg/platform/audit"
)

func TestStore_AppendWritesAllColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	actor := id.NewPersonID()
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WithArgs("01HX", sqlmock.AnyArg(), audit.SubjectRoleRequest, "rr-1", "role_request_approved",
			[]byte(`{"code":"08.3174.0001"}`), "req-9", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = New(db).Append(context.Background(), &audit.Entry{
		ID:          "01HX",
		ActorID:     actor,
		SubjectType: audit.SubjectRoleRequest,
		SubjectID:   "rr-1",
		Action:      "role_request_approved",
		Detail:      map[string]any{"code": "08.3174.0001"},
		RequestID:   "req-9",
		Timestamp:   now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryBuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	actor := id.NewPersonID()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "actor_id", "subject_type", "subject_id", "action", "detail", "request_id", "created_at"}).
		AddRow("01HY", uuid.UUID(actor).String(), audit.SubjectIntegrationRequest, "ir-1", "integration_approved", []byte(`{"feedback":"welcome"}`), "", now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_entries WHERE actor_id = $1 AND action = $2 ORDER BY id DESC LIMIT $3")).
		WithArgs(uuid.UUID(actor), "integration_approved", 25).
		WillReturnRows(rows)

	got, err := New(db).Query(context.Background(), audit.Filter{ActorID: actor, Action: "integration_approved", Limit: 25})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, actor, got[0].ActorID)
	assert.Equal(t, "welcome", got[0].Detail["feedback"])
	require.NoError(t, mock.ExpectationsWereMet())
}
