// session.go - Credential checks, bearer-session issuance, and the
// layered authorization gates.
//
// Sessions are capability references, not caches: every resolution
// re-reads the identity from the store, so deactivation takes effect on
// the very next request even while the signature is still valid.
package server

import (
	"context"
	"time"
)

// SessionAuthority authenticates credentials and resolves bearer tokens
// back to identities.
type SessionAuthority struct {
	store      Store
	vault      *CredentialVault
	codec      *TokenCodec
	sessionTTL time.Duration

	// decoyHash keeps the unknown-username path as expensive as a real
	// password check, closing the timing oracle.
	decoyHash string
}

// NewSessionAuthority wires the authority. The decoy hash is generated
// once at the vault's configured cost.
func NewSessionAuthority(store Store, vault *CredentialVault, codec *TokenCodec, sessionTTL time.Duration) (*SessionAuthority, error) {
	decoy, err := vault.Hash("decoy-timing-password")
	if err != nil {
		return nil, err
	}
	return &SessionAuthority{
		store:      store,
		vault:      vault,
		codec:      codec,
		sessionTTL: sessionTTL,
		decoyHash:  decoy,
	}, nil
}

// Authenticate verifies username/password and returns the identity.
// Unknown usernames and wrong passwords both fail with
// ErrInvalidCredentials, and both paths pay one bcrypt comparison.
func (a *SessionAuthority) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	identity, err := a.store.FindIdentityByUsername(ctx, username)
	if err != nil {
		if isStoreUnavailable(err) {
			return nil, err
		}
		a.vault.Verify(password, a.decoyHash)
		return nil, ErrInvalidCredentials
	}
	if !a.vault.Verify(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}

// IssueSession stamps a signed bearer token for the identity.
func (a *SessionAuthority) IssueSession(identity *Identity) (string, error) {
	return a.codec.IssueSession(identity.Username, a.sessionTTL)
}

// ResolveSession verifies the bearer token and re-loads the identity it
// references. Every rejection collapses to ErrUnauthenticated so the
// caller learns nothing about why the token failed.
func (a *SessionAuthority) ResolveSession(ctx context.Context, token string) (*Identity, error) {
	username, err := a.codec.VerifySession(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	identity, err := a.store.FindIdentityByUsername(ctx, username)
	if err != nil {
		if isStoreUnavailable(err) {
			return nil, err
		}
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// The gates compose as a pipeline and fail closed at the first miss.
// Order matters: active, then verified, then role.

// RequireActive fails with ErrInactiveAccount for disabled identities.
func RequireActive(identity *Identity) error {
	if !identity.Active {
		return ErrInactiveAccount
	}
	return nil
}

// RequireVerified fails with ErrEmailNotVerified before verification.
func RequireVerified(identity *Identity) error {
	if err := RequireActive(identity); err != nil {
		return err
	}
	if !identity.EmailVerified {
		return ErrEmailNotVerified
	}
	return nil
}

// RequireRole runs the full pipeline: active, verified, then role.
func RequireRole(identity *Identity, role Role) error {
	if err := RequireVerified(identity); err != nil {
		return err
	}
	if identity.Role != role {
		return ErrRoleForbidden
	}
	return nil
}
