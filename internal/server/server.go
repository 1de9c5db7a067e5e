// server.go - HTTP server wiring for the exchange.
package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Server owns the HTTP listener and the wired exchange components.
type Server struct {
	httpServer *http.Server

	cfg      Config
	store    Store
	blobs    ObjectStorage
	email    *EmailService
	vault    *CredentialVault
	codec    *TokenCodec
	sessions *SessionAuthority
	grants   *DownloadGrantLedger
}

// New wires the components and builds the route table.
func New(cfg Config, store Store, blobs ObjectStorage, email *EmailService) (*Server, error) {
	vault := NewCredentialVault(cfg.BcryptCost)
	codec := NewTokenCodec(cfg.SigningSecret)

	sessions, err := NewSessionAuthority(store, vault, codec, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		blobs:    blobs,
		email:    email,
		vault:    vault,
		codec:    codec,
		sessions: sessions,
		grants:   NewDownloadGrantLedger(store),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// routes builds the mux and the middleware stack:
// requestID -> logging -> security headers -> mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Credential endpoints sit behind a per-IP limiter to slow brute
	// force and enumeration attempts.
	authLimiter := newRateLimiter(20, time.Minute)
	mux.Handle("POST /auth/signup", authLimiter.middleware(http.HandlerFunc(s.handleSignup)))
	mux.Handle("POST /auth/login", authLimiter.middleware(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /auth/ops-login", authLimiter.middleware(http.HandlerFunc(s.handleOpsLogin)))
	mux.HandleFunc("GET /auth/verify-email", s.handleVerifyEmail)
	mux.HandleFunc("POST /auth/manual-verify/{id}", s.handleManualVerify)

	mux.HandleFunc("POST /files/upload", s.requireSession(s.handleUpload))
	mux.HandleFunc("GET /files/list", s.requireSession(s.handleListFiles))
	mux.HandleFunc("GET /files/download-link/{id}", s.requireSession(s.handleDownloadLink))
	mux.HandleFunc("GET /files/secure-download/{token}", s.handleSecureDownload)

	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// Handler exposes the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
