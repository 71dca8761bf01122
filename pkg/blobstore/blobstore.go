// Package blobstore implements the local content-addressed object store.
//
// Layout under the object root:
//
//	source-files/<hex-digest>          finalized transcript blobs
//	raw-blocks/<source-id>/<block-id>.zst  compressed raw line blocks
//	report-packs/<name>-<uuid>.zip     exported report bundles
//
// Upload staging lives under a separate upload root:
//
//	<upload-id>/chunk_NNNNNN.part
//
// Finalization is atomic: content is streamed into a temp file next to its
// destination and renamed into place, so no partially written object is ever
// visible under its final name.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/caseforge/caseforge/pkg/bufpool"
)

const (
	sourceFilesDir = "source-files"
	rawBlocksDir   = "raw-blocks"
	reportPacksDir = "report-packs"

	// chunkPattern encodes a 6-digit zero-padded index so lexicographic
	// order equals numeric order.
	chunkPattern = "chunk_%06d.part"
)

// Store is a filesystem-backed content-addressed blob store.
type Store struct {
	objectRoot string
	uploadRoot string
}

// New creates the store, ensuring both roots exist.
func New(objectRoot, uploadRoot string) (*Store, error) {
	if objectRoot == "" {
		return nil, fmt.Errorf("blobstore: object root is required")
	}
	if uploadRoot == "" {
		return nil, fmt.Errorf("blobstore: upload root is required")
	}
	for _, dir := range []string{objectRoot, uploadRoot, filepath.Join(objectRoot, sourceFilesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("blobstore: create %s: %w", dir, err)
		}
	}
	return &Store{objectRoot: objectRoot, uploadRoot: uploadRoot}, nil
}

// ChunkPrefix returns the staging directory for an upload session, creating
// it if needed.
func (s *Store) ChunkPrefix(uploadID string) (string, error) {
	prefix := filepath.Join(s.uploadRoot, uploadID)
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create chunk prefix: %w", err)
	}
	return prefix, nil
}

// WriteChunk writes one chunk file under the prefix. Writing the same index
// twice overwrites the previous content, which makes chunk upload idempotent.
func (s *Store) WriteChunk(prefix string, index int, data []byte) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("blobstore: negative chunk index %d", index)
	}
	path := filepath.Join(prefix, fmt.Sprintf(chunkPattern, index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blobstore: write chunk %d: %w", index, err)
	}
	return path, nil
}

// ChunkPaths enumerates the chunk files under a prefix in lexical order.
func (s *Store) ChunkPaths(prefix string) ([]string, error) {
	entries, err := os.ReadDir(prefix)
	if err != nil {
		return nil, fmt.Errorf("blobstore: list chunks: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(prefix, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Finalize streams the given chunk files, in order, into a temp blob while
// computing a SHA-256 digest, then renames the blob to
// source-files/<digest>. If an object with the same digest already exists
// the temp blob is discarded (content-addressed dedupe).
//
// Returns the hex digest, the final URI and the total byte count.
func (s *Store) Finalize(chunkPaths []string) (string, string, int64, error) {
	dir := filepath.Join(s.objectRoot, sourceFilesDir)
	tmp, err := os.CreateTemp(dir, ".finalize-*")
	if err != nil {
		return "", "", 0, fmt.Errorf("blobstore: create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hasher := sha256.New()
	out := io.MultiWriter(tmp, hasher)
	var total int64
	for _, path := range chunkPaths {
		n, err := copyFile(out, path)
		if err != nil {
			tmp.Close()
			return "", "", 0, err
		}
		total += n
	}
	if err := tmp.Close(); err != nil {
		return "", "", 0, fmt.Errorf("blobstore: close temp blob: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	final := filepath.Join(dir, digest)
	if _, err := os.Stat(final); err == nil {
		// Dedupe hit, keep the existing object.
		return digest, final, total, nil
	}
	if err := os.Rename(tmpName, final); err != nil {
		return "", "", 0, fmt.Errorf("blobstore: finalize rename: %w", err)
	}
	return digest, final, total, nil
}

// Healthcheck verifies both roots are still present and accessible.
func (s *Store) Healthcheck() error {
	for _, dir := range []string{s.objectRoot, s.uploadRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("blobstore: root %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("blobstore: root %s is not a directory", dir)
		}
	}
	return nil
}

// DiscardUpload removes the staging directory of an upload session.
func (s *Store) DiscardUpload(prefix string) error {
	return os.RemoveAll(prefix)
}

// RawBlockPath returns the destination path for a compressed raw block,
// creating the per-source directory if needed.
func (s *Store) RawBlockPath(sourceFileID, blockID string) (string, error) {
	dir := filepath.Join(s.objectRoot, rawBlocksDir, sourceFileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create raw block dir: %w", err)
	}
	return filepath.Join(dir, blockID+".zst"), nil
}

// Open returns a seekable reader for a stored blob URI.
func (s *Store) Open(uri string) (io.ReadSeekCloser, error) {
	f, err := os.Open(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blobstore: blob %s missing: %w", uri, err)
		}
		return nil, fmt.Errorf("blobstore: open blob: %w", err)
	}
	return f, nil
}

// ReportPackPath returns the destination path for a report pack ZIP.
func (s *Store) ReportPackPath(name string) (string, error) {
	dir := filepath.Join(s.objectRoot, reportPacksDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create report pack dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func copyFile(dst io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("blobstore: open chunk %s: %w", path, err)
	}
	defer f.Close()
	buf := bufpool.Get(bufpool.CopySize)
	defer bufpool.Put(buf)
	n, err := io.CopyBuffer(dst, f, buf)
	if err != nil {
		return 0, fmt.Errorf("blobstore: copy chunk %s: %w", path, err)
	}
	return n, nil
}
