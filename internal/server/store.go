// store.go - Abstract persistent store consumed by the exchange core.
//
// Implemented by the Postgres store for production and by the in-memory
// store for tests. Every mutation here is a single atomic operation so a
// caller-side timeout never leaves partial state behind.
package server

import (
	"context"
	"time"
)

// FileListing is a StoredFile joined with its uploader's username, the
// shape returned to clients browsing available files.
type FileListing struct {
	StoredFile
	UploaderUsername string
}

// Store is the persistence boundary for identities, file metadata, and
// download grants.
//
// Error contract: absence surfaces as the sentinel named on each
// method; anything else (connectivity, malformed rows) is wrapped as
// ErrStoreUnavailable.
type Store interface {
	// FindIdentityByUsername returns ErrInvalidCredentials when no such
	// username exists, so the login path fails uniformly.
	FindIdentityByUsername(ctx context.Context, username string) (*Identity, error)

	// FindIdentityByEmail reports absence as ErrInvalidCredentials too,
	// keeping the two credential-path lookups uniform.
	FindIdentityByEmail(ctx context.Context, email string) (*Identity, error)

	// FindIdentityByID is the administrative lookup; absence is
	// ErrInvalidCredentials like the other identity reads.
	FindIdentityByID(ctx context.Context, identityID string) (*Identity, error)

	// InsertIdentity persists a new identity. A username or email that
	// collides with an existing row yields ErrAlreadyRegistered; the
	// store's uniqueness constraint is the arbiter under concurrency.
	InsertIdentity(ctx context.Context, id *Identity) error

	// SetEmailVerified flips the verified flag and clears the pending
	// verification token. Idempotent: verifying an already-verified
	// identity is a no-op success.
	SetEmailVerified(ctx context.Context, identityID string) error

	// SetActive enables or disables an identity.
	SetActive(ctx context.Context, identityID string, active bool) error

	FindFileByID(ctx context.Context, fileID string) (*StoredFile, error)
	InsertFile(ctx context.Context, f *StoredFile) error
	ListFiles(ctx context.Context) ([]FileListing, error)

	InsertGrant(ctx context.Context, g *DownloadGrant) error
	FindGrantByToken(ctx context.Context, token string) (*DownloadGrant, error)

	// ConsumeGrant is the atomic check-and-set: it marks the grant
	// consumed iff it is currently unconsumed and unexpired at now, and
	// reports whether this call was the one that consumed it. At most
	// one call per token ever returns true, regardless of concurrency.
	ConsumeGrant(ctx context.Context, token string, now time.Time) (bool, error)

	// DeleteExpiredGrants removes grants whose expiry has passed. Pure
	// storage hygiene; correctness never depends on it running.
	DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error)
}
