package handlers

import (
	"net/http"
	"time"

	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/store"
)

// HealthHandler provides liveness and readiness probes.
type HealthHandler struct {
	store store.Store
	blobs *blobstore.Store
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(st store.Store, blobs *blobstore.Store) *HealthHandler {
	return &HealthHandler{store: st, blobs: blobs}
}

// healthResponse is the body of both probes.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Liveness handles GET /health. It answers as long as the process serves
// requests; no dependency checks.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// Readiness handles GET /health/ready. It pings the database and verifies
// the blob store roots are reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Healthcheck(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     "database: " + err.Error(),
		})
		return
	}
	if err := h.blobs.Healthcheck(); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     "blobstore: " + err.Error(),
		})
		return
	}
	WriteJSONOK(w, healthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}
