// postgres.go - Postgres-backed Store.
//
// Plain SQL over database/sql with the pgx stdlib driver. The only
// subtle operation is ConsumeGrant: a single conditional UPDATE whose
// affected-row count decides the winner under concurrent redemption.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

// PostgresStore implements Store on a *sql.DB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

const identityColumns = `id, email, username, password_hash, role, is_active, email_verified,
	COALESCE(pending_verification, ''), created_at`

func scanIdentity(row *sql.Row) (*Identity, error) {
	var id Identity
	err := row.Scan(&id.ID, &id.Email, &id.Username, &id.PasswordHash, &id.Role,
		&id.Active, &id.EmailVerified, &id.PendingVerification, &id.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *PostgresStore) FindIdentityByUsername(ctx context.Context, username string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE username = $1`, username)
	id, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("find identity by username", err)
	}
	return id, nil
}

func (s *PostgresStore) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1)`, email)
	id, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("find identity by email", err)
	}
	return id, nil
}

func (s *PostgresStore) FindIdentityByID(ctx context.Context, identityID string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, identityID)
	id, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("find identity by id", err)
	}
	return id, nil
}

func (s *PostgresStore) InsertIdentity(ctx context.Context, id *Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, username, password_hash, role, is_active, email_verified, pending_verification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
		id.ID, id.Email, id.Username, id.PasswordHash, id.Role,
		id.Active, id.EmailVerified, id.PendingVerification, id.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyRegistered
		}
		return storeErr("insert identity", err)
	}
	return nil
}

func (s *PostgresStore) SetEmailVerified(ctx context.Context, identityID string) error {
	// Idempotent by construction: a second run is a no-op update.
	_, err := s.db.ExecContext(ctx, `
		UPDATE identities
		SET email_verified = TRUE,
		    pending_verification = NULL
		WHERE id = $1`, identityID)
	if err != nil {
		return storeErr("set email verified", err)
	}
	return nil
}

func (s *PostgresStore) SetActive(ctx context.Context, identityID string, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE identities SET is_active = $2 WHERE id = $1`, identityID, active)
	if err != nil {
		return storeErr("set active", err)
	}
	return nil
}

func (s *PostgresStore) FindFileByID(ctx context.Context, fileID string) (*StoredFile, error) {
	var f StoredFile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, object_key, orig_name, content_type, size_bytes, COALESCE(sha256, ''), uploader_id, created_at
		FROM files WHERE id = $1`, fileID).
		Scan(&f.ID, &f.ObjectKey, &f.OrigName, &f.ContentType, &f.SizeBytes, &f.SHA256, &f.UploaderID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, storeErr("find file", err)
	}
	return &f, nil
}

func (s *PostgresStore) InsertFile(ctx context.Context, f *StoredFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, object_key, orig_name, content_type, size_bytes, sha256, uploader_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		f.ID, f.ObjectKey, f.OrigName, f.ContentType, f.SizeBytes, f.SHA256, f.UploaderID, f.CreatedAt)
	if err != nil {
		return storeErr("insert file", err)
	}
	return nil
}

func (s *PostgresStore) ListFiles(ctx context.Context) ([]FileListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.object_key, f.orig_name, f.content_type, f.size_bytes, COALESCE(f.sha256, ''),
		       f.uploader_id, f.created_at, i.username
		FROM files f
		JOIN identities i ON i.id = f.uploader_id
		ORDER BY f.created_at`)
	if err != nil {
		return nil, storeErr("list files", err)
	}
	defer rows.Close()

	var out []FileListing
	for rows.Next() {
		var l FileListing
		if err := rows.Scan(&l.ID, &l.ObjectKey, &l.OrigName, &l.ContentType, &l.SizeBytes,
			&l.SHA256, &l.UploaderID, &l.CreatedAt, &l.UploaderUsername); err != nil {
			return nil, storeErr("scan file listing", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list files", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertGrant(ctx context.Context, g *DownloadGrant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO download_grants (token, file_id, requester_id, issued_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		g.Token, g.FileID, g.RequesterID, g.IssuedAt, g.ExpiresAt, g.Consumed)
	if err != nil {
		return storeErr("insert grant", err)
	}
	return nil
}

func (s *PostgresStore) FindGrantByToken(ctx context.Context, token string) (*DownloadGrant, error) {
	var g DownloadGrant
	err := s.db.QueryRowContext(ctx, `
		SELECT token, file_id, requester_id, issued_at, expires_at, consumed
		FROM download_grants WHERE token = $1`, token).
		Scan(&g.Token, &g.FileID, &g.RequesterID, &g.IssuedAt, &g.ExpiresAt, &g.Consumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, storeErr("find grant", err)
	}
	return &g, nil
}

// ConsumeGrant marks the grant consumed iff it is still live. The single
// UPDATE is the whole critical section: Postgres row locking guarantees
// at most one caller sees RowsAffected == 1.
func (s *PostgresStore) ConsumeGrant(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_grants
		SET consumed = TRUE
		WHERE token = $1 AND NOT consumed AND expires_at > $2`,
		token, now)
	if err != nil {
		return false, storeErr("consume grant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("consume grant", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM download_grants WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, storeErr("delete expired grants", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("delete expired grants", err)
	}
	return n, nil
}

var _ Store = (*PostgresStore)(nil)
