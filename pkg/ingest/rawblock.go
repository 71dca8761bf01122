package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/bufpool"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

// DefaultBlockSize is the number of lines per sealed raw block.
const DefaultBlockSize = 500

// rawBlockLevel is the zstd compression level for raw block blobs.
// zstd.SpeedBestCompression corresponds to level 10+ in the reference
// encoder; evidence blobs are written once and read rarely.
const rawBlockLevel = zstd.SpeedBestCompression

// RawBlockWriter batches source lines into fixed-size zstd-compressed blocks.
//
// Append returns the evidence tuple (current block id, zero-based line
// index); the tuple stays valid once the block is eventually flushed. A
// final Flush is mandatory at end-of-stream even for a partial block.
type RawBlockWriter struct {
	blobs        *blobstore.Store
	store        store.Store
	sourceFileID string
	blockSize    int

	blockID string
	lines   []string
	flushed int
}

// NewRawBlockWriter creates a writer for one source file. A non-positive
// blockSize falls back to DefaultBlockSize.
func NewRawBlockWriter(blobs *blobstore.Store, st store.Store, sourceFileID string, blockSize int) *RawBlockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &RawBlockWriter{
		blobs:        blobs,
		store:        st,
		sourceFileID: sourceFileID,
		blockSize:    blockSize,
		blockID:      uuid.New().String(),
	}
}

// Append buffers one line and returns its evidence tuple. When the buffer
// reaches the block size it is flushed and a fresh block id allocated.
func (w *RawBlockWriter) Append(ctx context.Context, line string) (blockID string, lineIndex int, err error) {
	blockID = w.blockID
	lineIndex = len(w.lines)
	w.lines = append(w.lines, line)
	if len(w.lines) >= w.blockSize {
		if err := w.Flush(ctx); err != nil {
			return "", 0, err
		}
	}
	return blockID, lineIndex, nil
}

// Flush seals the current block: compresses the buffered lines, writes the
// blob, records the RawBlock row, and allocates a fresh block id. Flushing
// an empty buffer is a no-op.
func (w *RawBlockWriter) Flush(ctx context.Context) error {
	if len(w.lines) == 0 {
		return nil
	}

	path, err := w.blobs.RawBlockPath(w.sourceFileID, w.blockID)
	if err != nil {
		return err
	}
	if err := writeCompressed(path, w.lines); err != nil {
		return err
	}

	block := &models.RawBlock{
		ID:           w.blockID,
		SourceFileID: w.sourceFileID,
		URI:          path,
		Codec:        models.RawBlockCodec,
		LineCount:    len(w.lines),
	}
	if err := w.store.CreateRawBlock(ctx, block); err != nil {
		return fmt.Errorf("record raw block %s: %w", w.blockID, err)
	}

	w.lines = w.lines[:0]
	w.blockID = uuid.New().String()
	w.flushed++
	return nil
}

// Flushed returns the number of blocks sealed so far.
func (w *RawBlockWriter) Flushed() int { return w.flushed }

// writeCompressed writes lines joined with "\n" (no trailing newline) as a
// zstd stream.
func writeCompressed(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw block blob: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(rawBlockLevel))
	if err != nil {
		f.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.WriteString(enc, strings.Join(lines, "\n")); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("write raw block blob: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	return f.Close()
}

// ReadRawBlock decompresses a raw block blob back into its line array.
// Invalid UTF-8 byte sequences are preserved as-is; decoding to replacement
// runes is a presentation concern.
func ReadRawBlock(blobs *blobstore.Store, uri string) ([]string, error) {
	f, err := blobs.Open(uri)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	copyBuf := bufpool.Get(bufpool.CopySize)
	defer bufpool.Put(copyBuf)
	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, dec.IOReadCloser(), copyBuf); err != nil {
		return nil, fmt.Errorf("decompress raw block: %w", err)
	}
	if buf.Len() == 0 {
		return []string{}, nil
	}
	return strings.Split(buf.String(), "\n"), nil
}
