// files.go - Operator upload and client file listing.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	ID          string `json:"id"`
	OrigName    string `json:"original_filename"`
	SizeBytes   int64  `json:"file_size"`
	ContentType string `json:"file_type"`
	SHA256      string `json:"sha256"`
	Message     string `json:"message"`
}

// FileListEntry is one row of the client-facing listing.
type FileListEntry struct {
	ID               string    `json:"id"`
	OrigName         string    `json:"original_filename"`
	SizeBytes        int64     `json:"file_size"`
	ContentType      string    `json:"file_type"`
	UploadDate       time.Time `json:"upload_date"`
	UploaderUsername string    `json:"uploader_username"`
}

// maxUploadBytes reads SFX_MAX_UPLOAD_BYTES; zero means no limit.
func maxUploadBytes() (int64, error) {
	raw := os.Getenv("SFX_MAX_UPLOAD_BYTES")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// handleUpload handles POST /files/upload for operators. The multipart
// body streams straight into object storage while a SHA-256 digest is
// computed on the way through; metadata lands in the store afterwards,
// and the stored object is removed again if that insert fails.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, identity *Identity) {
	if err := Authorize(identity, ActionUploadFile); err != nil {
		s.writeGateError(w, err)
		return
	}

	limit, err := maxUploadBytes()
	if err != nil {
		http.Error(w, "Server misconfigured", http.StatusInternalServerError)
		return
	}
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	origName := sanitizeFilename(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileID := uuid.NewString()
	objectKey := "files/" + fileID

	hasher := sha256.New()
	reader := io.TeeReader(file, hasher)

	if err := s.blobs.Put(r.Context(), objectKey, reader, header.Size, contentType); err != nil {
		log.Printf("upload: storage failed file=%s err=%v", fileID, err)
		http.Error(w, "Storage error", http.StatusBadGateway)
		return
	}

	stored := &StoredFile{
		ID:          fileID,
		ObjectKey:   objectKey,
		OrigName:    origName,
		ContentType: contentType,
		SizeBytes:   header.Size,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
		UploaderID:  identity.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.InsertFile(r.Context(), stored); err != nil {
		log.Printf("upload: metadata insert failed file=%s err=%v", fileID, err)
		// Don't leave an orphaned object behind.
		if rmErr := s.blobs.Remove(r.Context(), objectKey); rmErr != nil {
			log.Printf("upload: orphan cleanup failed key=%s err=%v", objectKey, rmErr)
		}
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("upload: stored file=%s uploader=%s bytes=%d", fileID, identity.ID, stored.SizeBytes)
	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:          stored.ID,
		OrigName:    stored.OrigName,
		SizeBytes:   stored.SizeBytes,
		ContentType: stored.ContentType,
		SHA256:      stored.SHA256,
		Message:     "File uploaded successfully",
	})
}

// handleListFiles handles GET /files/list for clients.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request, identity *Identity) {
	if err := Authorize(identity, ActionListFiles); err != nil {
		s.writeGateError(w, err)
		return
	}

	listings, err := s.store.ListFiles(r.Context())
	if err != nil {
		log.Printf("list: query failed: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	out := make([]FileListEntry, 0, len(listings))
	for _, l := range listings {
		out = append(out, FileListEntry{
			ID:               l.ID,
			OrigName:         l.OrigName,
			SizeBytes:        l.SizeBytes,
			ContentType:      l.ContentType,
			UploadDate:       l.CreatedAt,
			UploaderUsername: l.UploaderUsername,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
