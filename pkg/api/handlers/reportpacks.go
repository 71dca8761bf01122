package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caseforge/caseforge/pkg/reportpack"
	"github.com/caseforge/caseforge/pkg/store"
)

// ReportPackHandler exposes report pack creation, listing and download.
type ReportPackHandler struct {
	store   store.Store
	builder *reportpack.Builder
}

// NewReportPackHandler creates a ReportPackHandler.
func NewReportPackHandler(st store.Store, builder *reportpack.Builder) *ReportPackHandler {
	return &ReportPackHandler{store: st, builder: builder}
}

// CreateReportPackRequest is the body of POST /report-packs.
type CreateReportPackRequest struct {
	Name    string            `json:"name"`
	Filters ReportPackFilters `json:"filters"`
}

// ReportPackFilters mirrors the event filter in request form.
type ReportPackFilters struct {
	EventType string `json:"event_type,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Create handles POST /report-packs. Generation is synchronous; the response
// carries the recorded pack row.
func (h *ReportPackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReportPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	filter := store.EventFilter{
		EventTypeKey: req.Filters.EventType,
		PlayerID:     req.Filters.PlayerID,
		Limit:        req.Filters.Limit,
	}
	if req.Filters.Start != "" {
		t, err := time.Parse(time.RFC3339, req.Filters.Start)
		if err != nil {
			BadRequest(w, "filters.start must be RFC 3339")
			return
		}
		filter.Start = &t
	}
	if req.Filters.End != "" {
		t, err := time.Parse(time.RFC3339, req.Filters.End)
		if err != nil {
			BadRequest(w, "filters.end must be RFC 3339")
			return
		}
		filter.End = &t
	}

	pack, err := h.builder.Build(r.Context(), req.Name, filter)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONCreated(w, pack)
}

// List handles GET /report-packs.
func (h *ReportPackHandler) List(w http.ResponseWriter, r *http.Request) {
	packs, err := h.store.ListReportPacks(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, packs)
}

// Get handles GET /report-packs/{id}.
func (h *ReportPackHandler) Get(w http.ResponseWriter, r *http.Request) {
	pack, err := h.store.GetReportPack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, pack)
}

// Download handles GET /report-packs/{id}/download, serving the ZIP bundle.
func (h *ReportPackHandler) Download(w http.ResponseWriter, r *http.Request) {
	pack, err := h.store.GetReportPack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		StoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pack.Name+`.zip"`)
	http.ServeFile(w, r, pack.URI)
}
