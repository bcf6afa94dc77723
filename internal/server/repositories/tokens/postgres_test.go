package tokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	recordQ    = `(?s)^INSERT\s+INTO\s+tokens\s*\(user_id,\s*secret,\s*kind,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*blacklisted,\s*created_at$`
	findQ      = `(?s)^SELECT\s+id,\s*user_id,\s*secret,\s*kind,\s*expires_at,\s*blacklisted,\s*created_at\s+FROM\s+tokens\s+WHERE\s+secret\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+AND\s+blacklisted\s*=\s*false$`
	blacklistQ = `(?s)^UPDATE\s+tokens\s+SET\s+blacklisted\s*=\s*true\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+blacklisted\s*=\s*false\s+AND\s+expires_at\s*>\s*\$2$`
	purgeQ     = `(?s)^DELETE\s+FROM\s+tokens\s+WHERE\s+expires_at\s*<=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestRecord_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	created := exp.Add(-time.Hour)

	mock.ExpectQuery(recordQ).
		WithArgs("u1", "tok123", "access", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "blacklisted", "created_at"}).AddRow("t1", false, created))

	got, err := repo.Record(context.Background(), "u1", "tok123", models.TokenKindAccess, exp)
	require.NoError(t, err)
	assert.Equal(t, &models.Token{
		ID: "t1", UserID: "u1", Secret: "tok123", Kind: models.TokenKindAccess,
		ExpiresAt: exp, CreatedAt: created,
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DuplicateSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recordQ).
		WithArgs("u1", "tok123", "refresh", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Record(context.Background(), "u1", "tok123", models.TokenKindRefresh, time.Now())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRecord_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recordQ).
		WithArgs("u1", "tok123", "access", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Record(context.Background(), "u1", "tok123", models.TokenKindAccess, time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindActive_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "secret", "kind", "expires_at", "blacklisted", "created_at"}).
		AddRow("t1", "u1", "tok123", "refresh", exp, false, time.Now())
	mock.ExpectQuery(findQ).WithArgs("tok123", "refresh").WillReturnRows(rows)

	got, err := repo.FindActive(context.Background(), "tok123", models.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.TokenKindRefresh, got.Kind)
	assert.Equal(t, exp, got.ExpiresAt)
	assert.False(t, got.Blacklisted)
}

func TestFindActive_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WithArgs("nope", "access").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "nope", models.TokenKindAccess)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindActive_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WithArgs("tok", "access").WillReturnError(errors.New("boom"))

	_, err := repo.FindActive(context.Background(), "tok", models.TokenKindAccess)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*boom`, err.Error())
}

func TestBlacklistAllActive(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("flips rows", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(blacklistQ).WithArgs("u1", now).WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.BlacklistAllActive(context.Background(), "u1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("nothing active", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(blacklistQ).WithArgs("u1", now).WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.BlacklistAllActive(context.Background(), "u1", now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(blacklistQ).WithArgs("u1", now).WillReturnError(errors.New("db err"))

		_, err := repo.BlacklistAllActive(context.Background(), "u1", now)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db err`, err.Error())
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(blacklistQ).WithArgs("u1", now).
			WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

		_, err := repo.BlacklistAllActive(context.Background(), "u1", now)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*no count`, err.Error())
	})
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	before := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(purgeQ).WithArgs(before).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(purgeQ).WithArgs(before).WillReturnError(errors.New("locked"))

	n, err := repo.PurgeExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = repo.PurgeExpired(context.Background(), before)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
