package handlers

import (
	"net/http"
	"strings"

	"github.com/caseforge/caseforge/internal/telemetry"
	"github.com/caseforge/caseforge/pkg/store"
)

// minQueryLength rejects queries too short to be selective.
const minQueryLength = 2

// SearchHandler exposes player and alias search.
type SearchHandler struct {
	store store.Store
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(st store.Store) *SearchHandler {
	return &SearchHandler{store: st}
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query   string               `json:"query"`
	Matches []*store.SearchMatch `json:"matches"`
}

// Search handles GET /search?q=. Matching is case-insensitive substring over
// player natural ids and recorded aliases.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(query)) < minQueryLength {
		BadRequest(w, "q must be at least 2 characters")
		return
	}

	matches, err := h.store.SearchPlayers(r.Context(), query)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	telemetry.SetAttributes(r.Context(),
		telemetry.SearchQuery(query),
		telemetry.ResultCount(len(matches)))

	if matches == nil {
		matches = []*store.SearchMatch{}
	}
	WriteJSONOK(w, SearchResponse{Query: query, Matches: matches})
}
