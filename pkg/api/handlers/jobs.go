package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

// previewEvents caps the event sample returned by the preview endpoint.
const previewEvents = 50

// JobHandler exposes ingest job creation and inspection.
type JobHandler struct {
	store store.Store
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(st store.Store) *JobHandler {
	return &JobHandler{store: st}
}

// CreateJobRequest is the body of POST /ingest-jobs.
type CreateJobRequest struct {
	SourceFileID string `json:"source_file_id"`
}

// Create handles POST /ingest-jobs. The job is queued; the worker picks it
// up on its next poll.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.SourceFileID == "" {
		BadRequest(w, "source_file_id is required")
		return
	}

	// Reject jobs for files that were never finalized.
	if _, err := h.store.GetSourceFile(r.Context(), req.SourceFileID); err != nil {
		StoreError(w, r, err)
		return
	}

	job := &models.IngestJob{SourceFileID: req.SourceFileID}
	id, err := h.store.CreateIngestJob(r.Context(), job)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	created, err := h.store.GetIngestJob(r.Context(), id)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	logger.InfoCtx(r.Context(), "ingest job queued",
		logger.JobID(id),
		logger.SourceFileID(req.SourceFileID))
	WriteJSONCreated(w, created)
}

// List handles GET /ingest-jobs with optional status, limit and offset
// query parameters.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.JobStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	jobs, err := h.store.ListIngestJobs(r.Context(), status, limit, offset)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, jobs)
}

// Get handles GET /ingest-jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		BadRequest(w, "job id must be an integer")
		return
	}

	job, err := h.store.GetIngestJob(r.Context(), id)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, job)
}

// PreviewResponse is the body of GET /ingest-jobs/{id}/preview: the job
// itself, a sample of its most recent events and the unknown-signature
// aggregation.
type PreviewResponse struct {
	Job               *models.IngestJob          `json:"job"`
	Events            []*models.Event            `json:"events"`
	UnknownSignatures []*models.UnknownSignature `json:"unknown_signatures"`
}

// Preview handles GET /ingest-jobs/{id}/preview.
func (h *JobHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		BadRequest(w, "job id must be an integer")
		return
	}

	job, err := h.store.GetIngestJob(r.Context(), id)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	events, err := h.store.ListJobEvents(r.Context(), id, previewEvents)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	signatures, err := h.store.ListUnknownSignatures(r.Context(), id)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	WriteJSONOK(w, PreviewResponse{
		Job:               job,
		Events:            events,
		UnknownSignatures: signatures,
	})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
