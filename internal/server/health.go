// health.go - Liveness endpoint with counter snapshot.
package server

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health. The exchange has no long-lived
// state of its own, so liveness plus the counter snapshot is enough;
// deeper dependency checks belong to the deployment's probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"metrics":   GetMetrics().Snapshot(),
	})
}
