// login.go - Credential login, bearer token issuance, and the session
// middleware resolving Authorization headers per request.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// LoginRequest is the JSON payload for both login endpoints.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleLogin handles POST /auth/login. Unknown username and wrong
// password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticateRequest(w, r)
	if !ok {
		return
	}

	// Login requires a usable account: active first, then verified.
	if err := RequireVerified(identity); err != nil {
		GetMetrics().RecordLoginFailure()
		s.writeGateError(w, err)
		return
	}

	s.issueSessionResponse(w, identity)
}

// handleOpsLogin handles POST /auth/ops-login, the operator entry point.
// Operators are provisioned out-of-band and verified manually, so this
// path checks role and active state but not email verification.
func (s *Server) handleOpsLogin(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticateRequest(w, r)
	if !ok {
		return
	}

	if identity.Role != RoleOperator {
		GetMetrics().RecordLoginFailure()
		http.Error(w, "This endpoint is only for operations users", http.StatusForbidden)
		return
	}
	if err := RequireActive(identity); err != nil {
		GetMetrics().RecordLoginFailure()
		s.writeGateError(w, err)
		return
	}

	s.issueSessionResponse(w, identity)
}

// authenticateRequest parses credentials and runs the uniform check.
// On failure it has already written the response.
func (s *Server) authenticateRequest(w http.ResponseWriter, r *http.Request) (*Identity, bool) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}

	identity, err := s.sessions.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if isStoreUnavailable(err) {
			log.Printf("login: store unavailable: %v", err)
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return nil, false
		}
		GetMetrics().RecordLoginFailure()
		http.Error(w, "Incorrect username or password", http.StatusUnauthorized)
		return nil, false
	}
	return identity, true
}

func (s *Server) issueSessionResponse(w http.ResponseWriter, identity *Identity) {
	token, err := s.sessions.IssueSession(identity)
	if err != nil {
		log.Printf("login: token issuance failed: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.cfg.SessionTTL.Seconds()),
	})
}

// writeGateError maps pipeline rejections onto HTTP statuses.
func (s *Server) writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInactiveAccount):
		http.Error(w, "Inactive user", http.StatusForbidden)
	case errors.Is(err, ErrEmailNotVerified):
		http.Error(w, "Email not verified. Please check your email and verify your account.", http.StatusForbidden)
	case errors.Is(err, ErrRoleForbidden):
		http.Error(w, "Forbidden for this role", http.StatusForbidden)
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
	default:
		http.Error(w, "Server error", http.StatusInternalServerError)
	}
}

// requireSession wraps a handler with bearer-token resolution. The
// resolved identity is passed through; every rejection is a uniform 401.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, *Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		identity, err := s.sessions.ResolveSession(r.Context(), header[len(prefix):])
		if err != nil {
			if isStoreUnavailable(err) {
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}
		next(w, r, identity)
	}
}
