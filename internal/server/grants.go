// grants.go - One-time, time-bounded download grants.
//
// A grant moves Issued -> Consumed exactly once, or lapses into Expired
// by the clock. There is no reissue: every request mints a fresh token,
// so older grants for the same file stay independently valid or invalid.
package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// grantTTL is fixed by design; links die an hour after issuance.
const grantTTL = 1 * time.Hour

// grantTokenBytes gives 256 bits of entropy per token.
const grantTokenBytes = 32

// DownloadGrantLedger issues and consumes download grants against the
// shared store. Safe for arbitrary concurrent use; the only mutation is
// the store's atomic consume.
type DownloadGrantLedger struct {
	store Store
	now   func() time.Time
}

// NewDownloadGrantLedger returns a ledger over the given store.
func NewDownloadGrantLedger(store Store) *DownloadGrantLedger {
	return &DownloadGrantLedger{store: store, now: time.Now}
}

// newGrantToken draws a fresh unguessable token from crypto/rand.
func newGrantToken() (string, error) {
	b := make([]byte, grantTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("grant token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue mints a grant for fileID on behalf of the requester. The file
// must exist; the returned token is the only credential redemption needs.
func (l *DownloadGrantLedger) Issue(ctx context.Context, fileID string, requester *Identity) (*DownloadGrant, error) {
	if _, err := l.store.FindFileByID(ctx, fileID); err != nil {
		return nil, err
	}
	token, err := newGrantToken()
	if err != nil {
		return nil, err
	}
	now := l.now().UTC()
	grant := &DownloadGrant{
		Token:       token,
		FileID:      fileID,
		RequesterID: requester.ID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(grantTTL),
		Consumed:    false,
	}
	if err := l.store.InsertGrant(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Redeem consumes the grant and returns the file it authorizes. The
// store's conditional update is the single atomic step: among any number
// of concurrent redemptions of one token, exactly one observes the flip
// and every other caller gets a terminal error.
//
// When a grant is both consumed and expired, consumption wins; callers
// may rely only on "never redeemable twice or after expiry", not on
// which of the two kinds fires.
func (l *DownloadGrantLedger) Redeem(ctx context.Context, token string) (*StoredFile, error) {
	if token == "" {
		return nil, ErrGrantNotFound
	}
	consumed, err := l.store.ConsumeGrant(ctx, token, l.now().UTC())
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, l.classifyRejection(ctx, token)
	}
	grant, err := l.store.FindGrantByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return l.store.FindFileByID(ctx, grant.FileID)
}

// classifyRejection decides which terminal error a failed consume maps
// to. The read happens after the consume attempt, so the answer is
// stable: the grant is already in a terminal state.
func (l *DownloadGrantLedger) classifyRejection(ctx context.Context, token string) error {
	grant, err := l.store.FindGrantByToken(ctx, token)
	if err != nil {
		return err
	}
	if grant.Consumed {
		return ErrGrantAlreadyConsumed
	}
	return ErrGrantExpired
}

// SweepExpired deletes grants past their expiry. Hygiene only; Redeem
// never depends on it.
func (l *DownloadGrantLedger) SweepExpired(ctx context.Context) (int64, error) {
	return l.store.DeleteExpiredGrants(ctx, l.now().UTC())
}
