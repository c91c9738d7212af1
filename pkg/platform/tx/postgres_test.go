package tx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clubid/pkg/domain-errors"
)

func TestPostgres_CommitRunsHooks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE role_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	notified := false
	err = NewPostgres(db, 0).RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := From(ctx)
		require.True(t, ok)
		AfterCommit(ctx, func(ctx context.Context) {
			notified = true
			assert.NoError(t, ctx.Err())
		})
		_, err := Execer(ctx, db).ExecContext(ctx, "UPDATE role_requests SET status = 'approved'")
		return err
	})
	require.NoError(t, err)
	assert.True(t, notified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	notified := false
	err = NewPostgres(db, 0).RunInTx(context.Background(), func(ctx context.Context) error {
		AfterCommit(ctx, func(context.Context) { notified = true })
		return dErrors.New(dErrors.CodeInvalidState, "role request already decided")
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.False(t, notified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CancelledContext(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewPostgres(db, 0).RunInTx(ctx, func(context.Context) error { return nil })
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
