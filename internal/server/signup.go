// signup.go - Client self-signup and email verification.
//
// Signup is open only to the client role; operator accounts are
// provisioned out-of-band. Verification is a one-way state change and
// redeeming a link twice is a harmless success, never an error.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// purposeVerifyEmail is the namespace tag for verification tokens.
// Session tokens and verification tokens share a secret but can never be
// replayed across namespaces.
const purposeVerifyEmail = "verify-email"

// SignupRequest is the JSON payload for user signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// SignupResponse is returned after successful signup.
type SignupResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Message         string `json:"message"`
	VerificationURL string `json:"verification_url,omitempty"`
}

// handleSignup handles POST /auth/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	// Self-signup is client-only by policy.
	if req.Role != "" && Role(req.Role) != RoleClient {
		http.Error(w, "Only client users can sign up through this endpoint", http.StatusBadRequest)
		return
	}
	if err := Authorize(nil, ActionSignup); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !validateEmail(req.Email) {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if ok, msg := validateUsername(req.Username); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if ok, msg := validatePassword(req.Password); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	hash, err := s.vault.Hash(req.Password)
	if err != nil {
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	verifyToken, err := s.codec.IssuePurpose(req.Email, purposeVerifyEmail)
	if err != nil {
		log.Printf("signup: verification token failed: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	identity := &Identity{
		ID:                  uuid.NewString(),
		Email:               req.Email,
		Username:            req.Username,
		PasswordHash:        hash,
		Role:                RoleClient,
		Active:              true,
		EmailVerified:       false,
		PendingVerification: verifyToken,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.store.InsertIdentity(r.Context(), identity); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			http.Error(w, "Email or username already registered", http.StatusBadRequest)
			return
		}
		log.Printf("signup: insert failed: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.cfg.BaseURL, verifyToken)

	// Best-effort: a bounced email never blocks account creation.
	if !s.email.SendVerificationEmail(identity.Email, verificationURL) {
		log.Printf("signup: verification email not delivered user=%s", identity.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(SignupResponse{
		ID:              identity.ID,
		Email:           identity.Email,
		Username:        identity.Username,
		Message:         "User created successfully. Please check your email for verification.",
		VerificationURL: verificationURL,
	})
}

// handleVerifyEmail handles GET /auth/verify-email?token=...
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing verification token", http.StatusBadRequest)
		return
	}

	email, err := s.codec.RedeemPurpose(token, purposeVerifyEmail, s.cfg.VerificationTTL)
	if err != nil {
		// All codec failures read the same outward: the link is no good.
		http.Error(w, "Invalid or expired verification token", http.StatusBadRequest)
		return
	}

	identity, err := s.store.FindIdentityByEmail(r.Context(), email)
	if err != nil {
		if isStoreUnavailable(err) {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Invalid or expired verification token", http.StatusBadRequest)
		return
	}

	if identity.EmailVerified {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Email already verified"})
		return
	}

	if err := s.store.SetEmailVerified(r.Context(), identity.ID); err != nil {
		log.Printf("verify: update failed: %v", err)
		http.Error(w, "Failed to verify email", http.StatusInternalServerError)
		return
	}

	log.Printf("verify: email verified user=%s", identity.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// handleManualVerify handles POST /auth/manual-verify/{id}. This is the
// operational recovery path: a direct flip with no token. Idempotent
// like the normal path.
func (s *Server) handleManualVerify(w http.ResponseWriter, r *http.Request) {
	identityID := r.PathValue("id")
	if identityID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}

	identity, err := s.store.FindIdentityByID(r.Context(), identityID)
	if err != nil {
		if isStoreUnavailable(err) {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if identity.EmailVerified {
		writeJSON(w, http.StatusOK, map[string]string{"message": "User already verified"})
		return
	}

	if err := s.store.SetEmailVerified(r.Context(), identity.ID); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User verified successfully"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
