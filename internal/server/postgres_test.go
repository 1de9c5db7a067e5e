package server

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func identityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "role",
		"is_active", "email_verified", "pending_verification", "created_at",
	})
}

func TestPostgresFindIdentityByUsername(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM identities WHERE username").
		WithArgs("alice").
		WillReturnRows(identityRows().
			AddRow("id-1", "alice@example.com", "alice", "$2a$hash", "client", true, true, "", created))

	got, err := store.FindIdentityByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, RoleClient, got.Role)
	assert.True(t, got.Active)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindIdentityAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM identities WHERE username").
		WithArgs("nobody").
		WillReturnRows(identityRows())

	_, err := store.FindIdentityByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertIdentityUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO identities").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := store.InsertIdentity(context.Background(), &Identity{
		ID:       "id-1",
		Email:    "alice@example.com",
		Username: "alice",
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertIdentityOtherErrorIsUnavailable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO identities").
		WillReturnError(assert.AnError)

	err := store.InsertIdentity(context.Background(), &Identity{ID: "id-1"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConsumeGrantWins(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE download_grants").
		WithArgs("tok-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	consumed, err := store.ConsumeGrant(context.Background(), "tok-1", now)
	require.NoError(t, err)
	assert.True(t, consumed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConsumeGrantLoses(t *testing.T) {
	store, mock := newMockStore(t)

	// Zero rows affected: already consumed, expired, or unknown. The
	// store reports only "did not win"; classification is the ledger's.
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE download_grants").
		WithArgs("tok-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	consumed, err := store.ConsumeGrant(context.Background(), "tok-1", now)
	require.NoError(t, err)
	assert.False(t, consumed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindGrantAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM download_grants WHERE token").
		WithArgs("no-such").
		WillReturnRows(sqlmock.NewRows([]string{
			"token", "file_id", "requester_id", "issued_at", "expires_at", "consumed",
		}))

	_, err := store.FindGrantByToken(context.Background(), "no-such")
	assert.ErrorIs(t, err, ErrGrantNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpiredGrants(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectExec("DELETE FROM download_grants").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpiredGrants(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindFileAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM files WHERE id").
		WithArgs("no-such").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "object_key", "orig_name", "content_type", "size_bytes", "sha256", "uploader_id", "created_at",
		}))

	_, err := store.FindFileByID(context.Background(), "no-such")
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
