package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/config"
	"github.com/caseforge/caseforge/pkg/ingest"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

type testServer struct {
	*httptest.Server
	store  store.Store
	runner *ingest.Runner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()

	st, err := store.New(context.Background(), &store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(root, "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blobstore.New(filepath.Join(root, "objects"), filepath.Join(root, "uploads"))
	require.NoError(t, err)

	runner, err := ingest.NewRunner(st, blobs, nil, ingest.RunnerConfig{StaleGrace: -1})
	require.NoError(t, err)

	cfg := config.GetDefaultConfig().API
	srv := httptest.NewServer(NewRouter(cfg, st, blobs))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: st, runner: runner}
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *testServer) putChunk(t *testing.T, uploadID string, index int, data string) *http.Response {
	t.Helper()
	url := fmt.Sprintf("%s/uploads/%s/chunk?index=%d", s.URL, uploadID, index)
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(data))
	require.NoError(t, err)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const apiTranscript = `— 12/03/2024 14:05
Retragere Banca
John[42] a retras 1.000$
— 12/03/2024 14:07
Transfer (Bancar)
John[42] a transferat 2.500$ lui Maria[7].`

// uploadTranscript drives the full chunked upload flow and returns the
// finalized source file.
func (s *testServer) uploadTranscript(t *testing.T) *models.SourceFile {
	t.Helper()

	var session models.UploadSession
	resp := s.doJSON(t, http.MethodPost, "/uploads/create", map[string]any{
		"filename":        "transcript.txt",
		"size":            len(apiTranscript),
		"chunk_size":      64,
		"expected_chunks": 2,
	}, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Split roughly in half, sent out of order.
	half := len(apiTranscript) / 2
	resp = s.putChunk(t, session.ID, 1, apiTranscript[half:])
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.putChunk(t, session.ID, 0, apiTranscript[:half])
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var file models.SourceFile
	resp = s.doJSON(t, http.MethodPost, "/uploads/"+session.ID+"/finalize", nil, &file)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, file.ID)
	return &file
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.doJSON(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadFlow(t *testing.T) {
	s := newTestServer(t)
	file := s.uploadTranscript(t)

	assert.Equal(t, "transcript.txt", file.Name)
	assert.Len(t, file.SHA256, 64)
	assert.Equal(t, int64(len(apiTranscript)), file.Size)
}

func TestUploadChunkAfterFinalizeConflicts(t *testing.T) {
	s := newTestServer(t)

	var session models.UploadSession
	resp := s.doJSON(t, http.MethodPost, "/uploads/create", map[string]any{
		"filename": "small.txt", "size": 5, "chunk_size": 5,
	}, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.putChunk(t, session.ID, 0, "hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.doJSON(t, http.MethodPost, "/uploads/"+session.ID+"/finalize", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.putChunk(t, session.ID, 1, "late")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFinalizeIncompleteConflicts(t *testing.T) {
	s := newTestServer(t)

	var session models.UploadSession
	resp := s.doJSON(t, http.MethodPost, "/uploads/create", map[string]any{
		"filename": "partial.txt", "size": 10, "chunk_size": 5, "expected_chunks": 2,
	}, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.putChunk(t, session.ID, 0, "hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.doJSON(t, http.MethodPost, "/uploads/"+session.ID+"/finalize", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIngestJobLifecycle(t *testing.T) {
	s := newTestServer(t)
	file := s.uploadTranscript(t)

	var job models.IngestJob
	resp := s.doJSON(t, http.MethodPost, "/ingest-jobs", map[string]any{
		"source_file_id": file.ID,
	}, &job)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.JobStatusQueued, job.Status)

	// The worker loop normally drives this; here one manual pass.
	worked, err := s.runner.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, worked)

	var done models.IngestJob
	resp = s.doJSON(t, http.MethodGet, fmt.Sprintf("/ingest-jobs/%d", job.ID), nil, &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.EqualValues(t, 2, done.Stats["events_inserted"])

	var preview struct {
		Job    models.IngestJob `json:"job"`
		Events []models.Event   `json:"events"`
	}
	resp = s.doJSON(t, http.MethodGet, fmt.Sprintf("/ingest-jobs/%d/preview", job.ID), nil, &preview)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, preview.Events, 2)
}

func TestJobForMissingSourceFile(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodPost, "/ingest-jobs", map[string]any{
		"source_file_id": "00000000-0000-0000-0000-000000000000",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventQueryAndEvidence(t *testing.T) {
	s := newTestServer(t)
	file := s.uploadTranscript(t)
	s.doJSON(t, http.MethodPost, "/ingest-jobs", map[string]any{"source_file_id": file.ID}, nil)
	_, err := s.runner.RunOnce(context.Background())
	require.NoError(t, err)

	var events []models.Event
	resp := s.doJSON(t, http.MethodGet, "/events?event_type=BANK_WITHDRAW", nil, &events)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, events, 1)

	var single models.Event
	resp = s.doJSON(t, http.MethodGet, "/events/"+events[0].ID, nil, &single)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, events[0].DedupeKey, single.DedupeKey)

	var evidence struct {
		Line    string   `json:"line"`
		Context []string `json:"context"`
	}
	url := fmt.Sprintf("/evidence/raw-line?raw_block_id=%s&line_index=%d",
		events[0].RawBlockID, events[0].RawLineIndex)
	resp = s.doJSON(t, http.MethodGet, url, nil, &evidence)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "John[42] a retras 1.000$", evidence.Line)
	assert.NotEmpty(t, evidence.Context)

	resp = s.doJSON(t, http.MethodGet, "/events/missing-id", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportPackEndpoints(t *testing.T) {
	s := newTestServer(t)
	file := s.uploadTranscript(t)
	s.doJSON(t, http.MethodPost, "/ingest-jobs", map[string]any{"source_file_id": file.ID}, nil)
	_, err := s.runner.RunOnce(context.Background())
	require.NoError(t, err)

	var pack models.ReportPack
	resp := s.doJSON(t, http.MethodPost, "/report-packs", map[string]any{
		"name":    "ancheta",
		"filters": map[string]any{"event_type": "BANK_TRANSFER"},
	}, &pack)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, pack.ID)

	var packs []models.ReportPack
	resp = s.doJSON(t, http.MethodGet, "/report-packs", nil, &packs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, packs, 1)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/report-packs/"+pack.ID+"/download", nil)
	require.NoError(t, err)
	dl, err := s.Client().Do(req)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/zip", dl.Header.Get("Content-Type"))
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "download should be a ZIP")
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	file := s.uploadTranscript(t)
	s.doJSON(t, http.MethodPost, "/ingest-jobs", map[string]any{"source_file_id": file.ID}, nil)
	_, err := s.runner.RunOnce(context.Background())
	require.NoError(t, err)

	var result struct {
		Matches []store.SearchMatch `json:"matches"`
	}
	resp := s.doJSON(t, http.MethodGet, "/search?q=Maria", nil, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "7", result.Matches[0].NaturalID)

	resp = s.doJSON(t, http.MethodGet, "/search?q=a", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
