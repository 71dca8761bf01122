package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/ingest"
	"github.com/caseforge/caseforge/pkg/store"
)

const (
	// maxEventPage caps GET /events page size.
	maxEventPage     = 500
	defaultEventPage = 100

	// maxEvidenceContext caps the context window around an evidence line.
	maxEvidenceContext     = 10
	defaultEvidenceContext = 2
)

// EventHandler exposes event queries and raw-line evidence lookup.
type EventHandler struct {
	store store.Store
	blobs *blobstore.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(st store.Store, blobs *blobstore.Store) *EventHandler {
	return &EventHandler{store: st, blobs: blobs}
}

// List handles GET /events with filters event_type, player_id, start, end,
// limit and offset. Timestamps are RFC 3339.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.EventFilter{
		EventTypeKey: q.Get("event_type"),
		PlayerID:     q.Get("player_id"),
		Limit:        queryInt(r, "limit", defaultEventPage),
		Offset:       queryInt(r, "offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxEventPage {
		filter.Limit = maxEventPage
	}

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(w, "start must be RFC 3339")
			return
		}
		filter.Start = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(w, "end must be RFC 3339")
			return
		}
		filter.End = &t
	}

	events, err := h.store.ListEvents(r.Context(), filter)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, events)
}

// Get handles GET /events/{id}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, event)
}

// EvidenceResponse is the body of GET /evidence/raw-line: the referenced
// line plus surrounding context from the decompressed raw block.
type EvidenceResponse struct {
	RawBlockID string   `json:"raw_block_id"`
	LineIndex  int      `json:"line_index"`
	FirstIndex int      `json:"first_index"`
	Line       string   `json:"line"`
	Context    []string `json:"context"`
}

// RawLine handles GET /evidence/raw-line?raw_block_id=&line_index=&context=.
func (h *EventHandler) RawLine(w http.ResponseWriter, r *http.Request) {
	blockID := r.URL.Query().Get("raw_block_id")
	if blockID == "" {
		BadRequest(w, "raw_block_id is required")
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("line_index"))
	if err != nil {
		BadRequest(w, "line_index must be an integer")
		return
	}
	context := queryInt(r, "context", defaultEvidenceContext)
	if context < 0 || context > maxEvidenceContext {
		context = maxEvidenceContext
	}

	block, err := h.store.GetRawBlock(r.Context(), blockID)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	lines, err := ingest.ReadRawBlock(h.blobs, block.URI)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	if index < 0 || index >= len(lines) {
		BadRequest(w, "line_index out of range")
		return
	}

	lo := index - context
	if lo < 0 {
		lo = 0
	}
	hi := index + context
	if hi > len(lines)-1 {
		hi = len(lines) - 1
	}

	WriteJSONOK(w, EvidenceResponse{
		RawBlockID: blockID,
		LineIndex:  index,
		FirstIndex: lo,
		Line:       lines[index],
		Context:    lines[lo : hi+1],
	})
}
