// tokens.go - Signed token codec for sessions and purpose tokens.
//
// Two namespaces share one HS256 secret. Session tokens carry their own
// expiry; purpose tokens carry only an issuance timestamp, and the TTL
// is evaluated at redemption so an old token can never be refreshed by
// re-verifying it.
package server

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultSessionTTL applies when the caller passes a non-positive TTL.
const defaultSessionTTL = 30 * time.Minute

// SessionClaims are the claims embedded in a bearer session token.
// Subject is the identity's username. Nothing sensitive belongs here:
// the payload is authenticated, not confidential.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// purposeClaims bind a subject string to a declared purpose. No exp is
// encoded; RedeemPurpose checks the TTL against IssuedAt.
type purposeClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies the two token namespaces. The secret is
// read-only after construction and never leaves the process.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec over the server signing secret. An empty
// secret is a configuration error surfaced at startup, not here.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret, now: time.Now}
}

// IssueSession signs a session token for the given subject username.
func (c *TokenCodec) IssueSession(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(c.secret)
}

// VerifySession validates signature and expiry and returns the subject.
// Failures are ErrTokenExpired, ErrBadSignature, or ErrMalformedToken.
func (c *TokenCodec) VerifySession(token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}

// IssuePurpose signs a purpose token binding subject to purpose. Only
// the issuance timestamp is encoded; the TTL belongs to redemption.
func (c *TokenCodec) IssuePurpose(subject, purpose string) (string, error) {
	if subject == "" || purpose == "" {
		return "", ErrInvalidInput
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, purposeClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	})
	return tok.SignedString(c.secret)
}

// RedeemPurpose validates signature and purpose, then checks that fewer
// than ttl seconds have passed since issuance. Returns the bound subject.
// Failures are ErrTokenExpired, ErrBadSignature, ErrWrongPurpose, or
// ErrMalformedToken.
func (c *TokenCodec) RedeemPurpose(token, purpose string, ttl time.Duration) (string, error) {
	claims := &purposeClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return "", ErrMalformedToken
	}
	if claims.Purpose != purpose {
		return "", ErrWrongPurpose
	}
	if c.now().Sub(claims.IssuedAt.Time) >= ttl {
		return "", ErrTokenExpired
	}
	return claims.Subject, nil
}

// mapJWTError folds library errors into the codec's own sentinel kinds.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformedToken
	}
}
