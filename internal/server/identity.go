// identity.go - Domain records persisted by the store.
package server

import "time"

// Role separates the two fixed account types. Operators upload files;
// clients discover them and request download grants.
type Role string

const (
	RoleOperator Role = "operator"
	RoleClient   Role = "client"
)

// ValidRole reports whether r is one of the two supported roles.
func ValidRole(r Role) bool {
	return r == RoleOperator || r == RoleClient
}

// Identity is an account record. PasswordHash is never the plaintext and
// must never be logged or serialized outward.
type Identity struct {
	ID                  string
	Email               string
	Username            string
	PasswordHash        string
	Role                Role
	Active              bool
	EmailVerified       bool
	PendingVerification string // issued verification token, cleared on redemption
	CreatedAt           time.Time
}

// StoredFile is the metadata record for one uploaded object. The bytes
// themselves live in object storage under ObjectKey.
type StoredFile struct {
	ID          string
	ObjectKey   string
	OrigName    string
	ContentType string
	SizeBytes   int64
	SHA256      string
	UploaderID  string
	CreatedAt   time.Time
}

// DownloadGrant authorizes exactly one future retrieval of one file.
// Consumed flips false to true at most once, atomically in the store.
type DownloadGrant struct {
	Token       string
	FileID      string
	RequesterID string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Consumed    bool
}
