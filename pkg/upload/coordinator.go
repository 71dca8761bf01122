// Package upload implements the chunked upload coordinator: sessions accept
// out-of-order chunks, and finalization assembles them into a
// content-addressed source file.
package upload

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/telemetry"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

// Coordinator drives upload sessions against the blob store and the
// persistence layer.
type Coordinator struct {
	store store.Store
	blobs *blobstore.Store
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(st store.Store, blobs *blobstore.Store) *Coordinator {
	return &Coordinator{store: st, blobs: blobs}
}

// Create opens a new upload session. expectedChunks may be nil when the
// client does not know the chunk count up front.
func (c *Coordinator) Create(ctx context.Context, filename string, size, chunkSize int64, expectedChunks *int) (*models.UploadSession, error) {
	if filename == "" {
		return nil, fmt.Errorf("upload: filename is required")
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("upload: chunk size must be positive")
	}
	if expectedChunks != nil && *expectedChunks <= 0 {
		return nil, fmt.Errorf("upload: expected chunk count must be positive")
	}

	id := uuid.New().String()
	prefix, err := c.blobs.ChunkPrefix(id)
	if err != nil {
		return nil, err
	}

	session := &models.UploadSession{
		ID:             id,
		Filename:       filename,
		Size:           size,
		ChunkSize:      chunkSize,
		ExpectedChunks: expectedChunks,
		TempPrefix:     prefix,
		Status:         models.UploadStatusOpen,
	}
	if _, err := c.store.CreateUploadSession(ctx, session); err != nil {
		return nil, fmt.Errorf("upload: create session: %w", err)
	}

	logger.InfoCtx(ctx, "upload session created",
		"upload_id", id,
		"filename", filename,
		"chunk_size", chunkSize)
	return session, nil
}

// PutChunk stores one chunk. Re-sending an index overwrites the previous
// content, which makes retries safe. Chunks may arrive in any order.
func (c *Coordinator) PutChunk(ctx context.Context, sessionID string, index int, data []byte) (*models.UploadSession, error) {
	if index < 0 {
		return nil, fmt.Errorf("upload: negative chunk index %d", index)
	}

	session, err := c.store.GetUploadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, models.ErrUploadFinalized
	}
	if session.ExpectedChunks != nil && index >= *session.ExpectedChunks {
		return nil, fmt.Errorf("upload: chunk index %d out of range (expected %d chunks)", index, *session.ExpectedChunks)
	}

	if _, err := c.blobs.WriteChunk(session.TempPrefix, index, data); err != nil {
		return nil, err
	}

	session.ReceivedChunks = session.ReceivedChunks.Add(index)
	if err := c.store.SaveUploadSession(ctx, session); err != nil {
		return nil, fmt.Errorf("upload: record chunk %d: %w", index, err)
	}
	return session, nil
}

// Finalize assembles the received chunks into a content-addressed source
// file. A digest hit returns the existing SourceFile; finalizing an
// already-finalized session returns its SourceFile again.
func (c *Coordinator) Finalize(ctx context.Context, sessionID string) (*models.SourceFile, error) {
	ctx, span := telemetry.StartUploadSpan(ctx, "finalize", sessionID)
	defer span.End()

	session, err := c.store.GetUploadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Finalized() {
		if session.FinalSHA256 == nil {
			return nil, fmt.Errorf("upload: session %s finalized without digest", sessionID)
		}
		return c.store.GetSourceFileBySHA256(ctx, *session.FinalSHA256)
	}

	if session.ExpectedChunks != nil && len(session.ReceivedChunks) < *session.ExpectedChunks {
		return nil, fmt.Errorf("%w: have %d of %d",
			models.ErrUploadIncomplete, len(session.ReceivedChunks), *session.ExpectedChunks)
	}
	if len(session.ReceivedChunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks received", models.ErrUploadIncomplete)
	}

	paths, err := c.blobs.ChunkPaths(session.TempPrefix)
	if err != nil {
		return nil, err
	}
	digest, uri, size, err := c.blobs.Finalize(paths)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	telemetry.SetAttributes(ctx,
		telemetry.SourceSHA256(digest),
		telemetry.ChunkCount(len(paths)),
		telemetry.UploadBytes(size))

	file, err := c.store.CreateSourceFile(ctx, &models.SourceFile{
		SHA256: digest,
		Name:   session.Filename,
		Size:   size,
		URI:    uri,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: intern source file: %w", err)
	}

	if err := c.store.FinalizeUploadSession(ctx, sessionID, digest, uri); err != nil {
		return nil, err
	}

	if err := c.blobs.DiscardUpload(session.TempPrefix); err != nil {
		logger.WarnCtx(ctx, "could not discard upload staging",
			"upload_id", sessionID, logger.Err(err))
	}

	logger.InfoCtx(ctx, "upload finalized",
		"upload_id", sessionID,
		logger.SourceFileID(file.ID),
		"sha256", digest,
		"size", size)
	return file, nil
}
