// download.go - Download-grant issuance and single-use redemption.
//
// Issuance needs a verified client session; redemption needs nothing but
// the grant token, which is the whole capability.
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// DownloadLinkResponse carries the minted single-use link.
type DownloadLinkResponse struct {
	DownloadLink string    `json:"download_link"`
	ExpiresAt    time.Time `json:"expires_at"`
	Message      string    `json:"message"`
}

// handleDownloadLink handles GET /files/download-link/{id} for clients.
// Every call mints a fresh grant; earlier grants for the same file stay
// independently valid until consumed or expired.
func (s *Server) handleDownloadLink(w http.ResponseWriter, r *http.Request, identity *Identity) {
	if err := Authorize(identity, ActionRequestGrant); err != nil {
		s.writeGateError(w, err)
		return
	}

	fileID := r.PathValue("id")
	if fileID == "" {
		http.Error(w, "Missing file id", http.StatusBadRequest)
		return
	}

	grant, err := s.grants.Issue(r.Context(), fileID, identity)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		log.Printf("download-link: issue failed file=%s err=%v", fileID, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	GetMetrics().RecordGrantIssued()
	log.Printf("download-link: grant issued file=%s requester=%s", fileID, identity.ID)

	writeJSON(w, http.StatusOK, DownloadLinkResponse{
		DownloadLink: fmt.Sprintf("%s/files/secure-download/%s", s.cfg.BaseURL, grant.Token),
		ExpiresAt:    grant.ExpiresAt,
		Message:      "success",
	})
}

// handleSecureDownload handles GET /files/secure-download/{token}.
// The redeem call is the atomic step; by the time the body streams, the
// grant is already burned and no concurrent request can win it again.
func (s *Server) handleSecureDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	file, err := s.grants.Redeem(r.Context(), token)
	if err != nil {
		GetMetrics().RecordGrantRejected()
		switch {
		case errors.Is(err, ErrGrantNotFound):
			http.Error(w, "Invalid download link", http.StatusNotFound)
		case errors.Is(err, ErrGrantExpired):
			http.Error(w, "Download link has expired", http.StatusGone)
		case errors.Is(err, ErrGrantAlreadyConsumed):
			http.Error(w, "Download link has already been used", http.StatusGone)
		default:
			log.Printf("secure-download: redeem failed: %v", err)
			http.Error(w, "Server error", http.StatusInternalServerError)
		}
		return
	}

	GetMetrics().RecordGrantRedeemed()

	obj, err := s.blobs.Get(r.Context(), file.ObjectKey)
	if err != nil {
		log.Printf("secure-download: storage failed file=%s err=%v", file.ID, err)
		http.Error(w, "Storage error", http.StatusBadGateway)
		return
	}
	defer func() { _ = obj.Close() }()

	if file.ContentType != "" {
		w.Header().Set("Content-Type", file.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if file.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.SizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.OrigName))

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("secure-download: stream interrupted file=%s err=%v", file.ID, err)
	}
}
