package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

func newCoordinator(t *testing.T) *Coordinator {
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

	return NewCoordinator(st, blobs)
}

func intPtr(v int) *int { return &v }

func TestCreateValidation(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	_, err := c.Create(ctx, "", 10, 5, nil)
	assert.Error(t, err)

	_, err = c.Create(ctx, "logs.txt", 10, 0, nil)
	assert.Error(t, err)

	_, err = c.Create(ctx, "logs.txt", 10, 5, intPtr(0))
	assert.Error(t, err)
}

func TestChunkedUploadFinalize(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 10, 5, intPtr(2))
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.NotEmpty(t, session.TempPrefix)
	assert.Equal(t, models.UploadStatusOpen, session.Status)

	// Out of order is fine.
	_, err = c.PutChunk(ctx, session.ID, 1, []byte("world"))
	require.NoError(t, err)
	session, err = c.PutChunk(ctx, session.ID, 0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, models.ChunkSet{0, 1}, session.ReceivedChunks)

	file, err := c.Finalize(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "logs.txt", file.Name)
	assert.Equal(t, int64(10), file.Size)
	assert.Len(t, file.SHA256, 64)

	content, err := os.ReadFile(file.URI)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(content))

	// Staging is cleaned up after finalize.
	_, err = os.Stat(session.TempPrefix)
	assert.True(t, os.IsNotExist(err))
}

func TestPutChunkIdempotent(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 5, 5, nil)
	require.NoError(t, err)

	_, err = c.PutChunk(ctx, session.ID, 0, []byte("first"))
	require.NoError(t, err)
	session, err = c.PutChunk(ctx, session.ID, 0, []byte("again"))
	require.NoError(t, err)
	assert.Equal(t, models.ChunkSet{0}, session.ReceivedChunks)

	file, err := c.Finalize(ctx, session.ID)
	require.NoError(t, err)
	content, err := os.ReadFile(file.URI)
	require.NoError(t, err)
	assert.Equal(t, "again", string(content))
}

func TestPutChunkBounds(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 10, 5, intPtr(2))
	require.NoError(t, err)

	_, err = c.PutChunk(ctx, session.ID, -1, []byte("x"))
	assert.Error(t, err)

	_, err = c.PutChunk(ctx, session.ID, 2, []byte("x"))
	assert.Error(t, err)

	_, err = c.PutChunk(ctx, "missing", 0, []byte("x"))
	assert.ErrorIs(t, err, models.ErrUploadNotFound)
}

func TestFinalizeIncomplete(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 10, 5, intPtr(2))
	require.NoError(t, err)
	_, err = c.PutChunk(ctx, session.ID, 0, []byte("hello"))
	require.NoError(t, err)

	_, err = c.Finalize(ctx, session.ID)
	assert.ErrorIs(t, err, models.ErrUploadIncomplete)

	// Still open; the missing chunk can arrive later.
	_, err = c.PutChunk(ctx, session.ID, 1, []byte("world"))
	require.NoError(t, err)
	_, err = c.Finalize(ctx, session.ID)
	assert.NoError(t, err)
}

func TestFinalizeEmptySession(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 0, 5, nil)
	require.NoError(t, err)

	_, err = c.Finalize(ctx, session.ID)
	assert.ErrorIs(t, err, models.ErrUploadIncomplete)
}

func TestRefinalizeReturnsSameFile(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	session, err := c.Create(ctx, "logs.txt", 5, 5, nil)
	require.NoError(t, err)
	_, err = c.PutChunk(ctx, session.ID, 0, []byte("hello"))
	require.NoError(t, err)

	first, err := c.Finalize(ctx, session.ID)
	require.NoError(t, err)
	second, err := c.Finalize(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Chunks after finalize are rejected.
	_, err = c.PutChunk(ctx, session.ID, 1, []byte("late"))
	assert.ErrorIs(t, err, models.ErrUploadFinalized)
}

func TestDigestDedupeAcrossSessions(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	a, err := c.Create(ctx, "first.txt", 5, 5, nil)
	require.NoError(t, err)
	_, err = c.PutChunk(ctx, a.ID, 0, []byte("hello"))
	require.NoError(t, err)
	fileA, err := c.Finalize(ctx, a.ID)
	require.NoError(t, err)

	b, err := c.Create(ctx, "second.txt", 5, 5, nil)
	require.NoError(t, err)
	_, err = c.PutChunk(ctx, b.ID, 0, []byte("hello"))
	require.NoError(t, err)
	fileB, err := c.Finalize(ctx, b.ID)
	require.NoError(t, err)

	// Same content, same source file; the original name wins.
	assert.Equal(t, fileA.ID, fileB.ID)
	assert.Equal(t, "first.txt", fileB.Name)
}
