// memstore.go - In-memory Store used by unit tests and local development.
//
// A single mutex guards all maps, which makes ConsumeGrant's check-and-set
// trivially atomic. Semantics mirror the Postgres store exactly, including
// the uniqueness constraint on signup.
package server

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is a Store backed by process memory.
type MemStore struct {
	mu         sync.Mutex
	identities map[string]*Identity      // keyed by identity ID
	files      map[string]*StoredFile    // keyed by file ID
	grants     map[string]*DownloadGrant // keyed by token
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		identities: make(map[string]*Identity),
		files:      make(map[string]*StoredFile),
		grants:     make(map[string]*DownloadGrant),
	}
}

func (m *MemStore) FindIdentityByUsername(ctx context.Context, username string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.Username == username {
			cp := *id
			return &cp, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *MemStore) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if strings.EqualFold(id.Email, email) {
			cp := *id
			return &cp, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *MemStore) FindIdentityByID(ctx context.Context, identityID string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identities[identityID]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	cp := *id
	return &cp, nil
}

func (m *MemStore) InsertIdentity(ctx context.Context, id *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.identities {
		if existing.Username == id.Username || strings.EqualFold(existing.Email, id.Email) {
			return ErrAlreadyRegistered
		}
	}
	cp := *id
	m.identities[id.ID] = &cp
	return nil
}

func (m *MemStore) SetEmailVerified(ctx context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identities[identityID]
	if !ok {
		return ErrInvalidCredentials
	}
	id.EmailVerified = true
	id.PendingVerification = ""
	return nil
}

func (m *MemStore) SetActive(ctx context.Context, identityID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identities[identityID]
	if !ok {
		return ErrInvalidCredentials
	}
	id.Active = active
	return nil
}

func (m *MemStore) FindFileByID(ctx context.Context, fileID string) (*StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil, ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemStore) InsertFile(ctx context.Context, f *StoredFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.files[f.ID] = &cp
	return nil
}

func (m *MemStore) ListFiles(ctx context.Context) ([]FileListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FileListing, 0, len(m.files))
	for _, f := range m.files {
		l := FileListing{StoredFile: *f}
		if up, ok := m.identities[f.UploaderID]; ok {
			l.UploaderUsername = up.Username
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) InsertGrant(ctx context.Context, g *DownloadGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.grants[g.Token] = &cp
	return nil
}

func (m *MemStore) FindGrantByToken(ctx context.Context, token string) (*DownloadGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[token]
	if !ok {
		return nil, ErrGrantNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemStore) ConsumeGrant(ctx context.Context, token string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[token]
	if !ok || g.Consumed || !now.Before(g.ExpiresAt) {
		return false, nil
	}
	g.Consumed = true
	return true, nil
}

func (m *MemStore) DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for tok, g := range m.grants {
		if !now.Before(g.ExpiresAt) {
			delete(m.grants, tok)
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemStore)(nil)
