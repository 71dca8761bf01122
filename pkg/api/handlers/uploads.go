package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caseforge/caseforge/pkg/upload"
)

// UploadHandler exposes the chunked upload lifecycle.
type UploadHandler struct {
	coordinator *upload.Coordinator
	maxChunk    int64
}

// NewUploadHandler creates an UploadHandler. maxChunk bounds a single chunk
// body in bytes.
func NewUploadHandler(coordinator *upload.Coordinator, maxChunk int64) *UploadHandler {
	return &UploadHandler{coordinator: coordinator, maxChunk: maxChunk}
}

// CreateUploadRequest is the body of POST /uploads/create.
type CreateUploadRequest struct {
	Filename       string `json:"filename"`
	Size           int64  `json:"size"`
	ChunkSize      int64  `json:"chunk_size,omitempty"`
	ExpectedChunks *int   `json:"expected_chunks,omitempty"`
}

// defaultChunkSize applies when the client does not pick one.
const defaultChunkSize = 4 << 20

// Create handles POST /uploads/create.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.ChunkSize == 0 {
		req.ChunkSize = defaultChunkSize
	}

	session, err := h.coordinator.Create(r.Context(), req.Filename, req.Size, req.ChunkSize, req.ExpectedChunks)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	WriteJSONCreated(w, session)
}

// ChunkResponse is the body returned after a chunk is stored.
type ChunkResponse struct {
	Status         string `json:"status"`
	Index          int    `json:"index"`
	Received       int    `json:"received"`
	ReceivedChunks []int  `json:"received_chunks"`
}

// PutChunk handles PUT /uploads/{id}/chunk?index=N with the raw chunk bytes
// as the request body.
func (h *UploadHandler) PutChunk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		BadRequest(w, "index query parameter must be an integer")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxChunk)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RequestEntityTooLarge(w, "chunk exceeds maximum size")
			return
		}
		BadRequest(w, "read chunk body: "+err.Error())
		return
	}

	session, err := h.coordinator.PutChunk(r.Context(), id, index, data)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	WriteJSONOK(w, ChunkResponse{
		Status:         string(session.Status),
		Index:          index,
		Received:       len(session.ReceivedChunks),
		ReceivedChunks: []int(session.ReceivedChunks),
	})
}

// Finalize handles POST /uploads/{id}/finalize.
func (h *UploadHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, err := h.coordinator.Finalize(r.Context(), id)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	WriteJSONOK(w, file)
}
