// Package store provides the ingest pipeline persistence layer.
//
// Two backends are supported:
//   - SQLite (single-node and tests; migrated via GORM AutoMigrate)
//   - PostgreSQL (partitioned event table; migrated via embedded SQL)
package store

import (
	"context"
	"time"

	"github.com/caseforge/caseforge/pkg/models"
)

// EventFilter narrows ListEvents. Zero values mean "no constraint".
type EventFilter struct {
	// EventTypeKey filters by the interned event type key (e.g. BANK_WITHDRAW).
	EventTypeKey string
	// PlayerID filters by the natural player id, matching src or dst.
	PlayerID string
	// Start and End bound occurred_at (inclusive start, exclusive end).
	Start *time.Time
	End   *time.Time
	// Limit caps the result size; callers must enforce their own maximum.
	Limit  int
	Offset int
}

// SearchMatch is one hit returned by SearchPlayers.
type SearchMatch struct {
	PlayerID  int64    `json:"player_dict_id"`
	NaturalID string   `json:"player_id"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Store is the persistence interface of the ingest pipeline.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Store interface {
	// ============================================
	// SOURCE FILE OPERATIONS
	// ============================================

	// CreateSourceFile interns a content-addressed source file. If a file
	// with the same digest already exists, the existing row is returned and
	// no new row is created.
	CreateSourceFile(ctx context.Context, file *models.SourceFile) (*models.SourceFile, error)

	// GetSourceFile returns a source file by id.
	// Returns models.ErrSourceFileNotFound if it doesn't exist.
	GetSourceFile(ctx context.Context, id string) (*models.SourceFile, error)

	// GetSourceFileBySHA256 returns a source file by content digest.
	// Returns models.ErrSourceFileNotFound if it doesn't exist.
	GetSourceFileBySHA256(ctx context.Context, digest string) (*models.SourceFile, error)

	// ListSourceFiles returns all source files, newest first.
	ListSourceFiles(ctx context.Context) ([]*models.SourceFile, error)

	// ============================================
	// UPLOAD SESSION OPERATIONS
	// ============================================

	// CreateUploadSession creates a new upload session. The ID is generated
	// if empty; the generated id is returned.
	CreateUploadSession(ctx context.Context, session *models.UploadSession) (string, error)

	// GetUploadSession returns an upload session by id.
	// Returns models.ErrUploadNotFound if it doesn't exist.
	GetUploadSession(ctx context.Context, id string) (*models.UploadSession, error)

	// SaveUploadSession persists session mutations (received chunk set).
	SaveUploadSession(ctx context.Context, session *models.UploadSession) error

	// FinalizeUploadSession flips the session to FINALIZED and records the
	// final digest and URI. Finalizing an already-FINALIZED session is a
	// no-op.
	FinalizeUploadSession(ctx context.Context, id, sha256, uri string) error

	// ============================================
	// INGEST JOB OPERATIONS
	// ============================================

	// CreateIngestJob creates a job in status queued and returns its id.
	CreateIngestJob(ctx context.Context, job *models.IngestJob) (int64, error)

	// GetIngestJob returns a job by id.
	// Returns models.ErrJobNotFound if it doesn't exist.
	GetIngestJob(ctx context.Context, id int64) (*models.IngestJob, error)

	// ListIngestJobs returns jobs newest first, optionally filtered by
	// status. A non-positive limit returns all jobs.
	ListIngestJobs(ctx context.Context, status models.JobStatus, limit, offset int) ([]*models.IngestJob, error)

	// LeaseQueuedJob atomically transitions the oldest queued job to
	// running and returns it. Returns models.ErrNoQueuedJob when the queue
	// is empty. The status transition is the lease primitive: at most one
	// caller wins a given job.
	LeaseQueuedJob(ctx context.Context) (*models.IngestJob, error)

	// UpdateJobProgress writes the job's progress map and bumps updated_at.
	// The timestamp doubles as the worker heartbeat.
	UpdateJobProgress(ctx context.Context, id int64, progress models.JSONMap) error

	// CompleteJob transitions a job to completed and records its stats.
	CompleteJob(ctx context.Context, id int64, stats models.JSONMap) error

	// FailJob transitions a job to failed and records the error text,
	// truncated to a bounded length.
	FailJob(ctx context.Context, id int64, errText string) error

	// ReclaimStaleJobs flips running jobs whose updated_at is older than
	// the grace period back to queued. Returns the number reclaimed.
	ReclaimStaleJobs(ctx context.Context, grace time.Duration) (int64, error)

	// ============================================
	// RAW BLOCK OPERATIONS
	// ============================================

	// CreateRawBlock records a sealed compressed block.
	CreateRawBlock(ctx context.Context, block *models.RawBlock) error

	// GetRawBlock returns a raw block by id.
	// Returns models.ErrRawBlockNotFound if it doesn't exist.
	GetRawBlock(ctx context.Context, id string) (*models.RawBlock, error)

	// ============================================
	// DICTIONARY OPERATIONS
	// ============================================
	//
	// All get-or-create calls are race-safe: concurrent callers with the
	// same natural key observe the same id (unique constraint plus a single
	// retry-read on conflict).

	GetOrCreateEventType(ctx context.Context, key string) (int64, error)
	GetOrCreateItem(ctx context.Context, name string) (int64, error)

	// GetOrCreateContainer interns a container key. Keys of the form
	// "portbagaj_<playerId>_..." record the owning player's natural id.
	GetOrCreateContainer(ctx context.Context, key string) (int64, error)

	GetOrCreatePlayer(ctx context.Context, playerID string) (int64, error)

	// EnsureAlias records a display name for an interned player. Duplicate
	// (player, alias) pairs are ignored.
	EnsureAlias(ctx context.Context, playerDictID int64, alias string) error

	// GetEventTypeByKey returns an interned event type.
	// Returns models.ErrEventNotFound if the key was never interned.
	GetEventTypeByKey(ctx context.Context, key string) (*models.DictEventType, error)

	// ListEventTypes returns all interned event types.
	ListEventTypes(ctx context.Context) ([]*models.DictEventType, error)

	// ============================================
	// EVENT OPERATIONS
	// ============================================

	// EnsureEventPartition provisions the monthly partition covering t.
	// A nil t refers to the default partition. Creation is idempotent and
	// safe under concurrent attempts. No-op on SQLite.
	EnsureEventPartition(ctx context.Context, t *time.Time) error

	// InsertEvent inserts an event; a dedupe-key conflict is treated as
	// success. Returns whether a row was actually written.
	InsertEvent(ctx context.Context, event *models.Event) (bool, error)

	// GetEvent returns an event by id.
	// Returns models.ErrEventNotFound if it doesn't exist.
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// ListEvents returns events matching the filter, ordered by
	// global_line_no within occurred_at.
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// ListJobEvents returns the most recent events of a job (by
	// global_line_no descending), capped at limit.
	ListJobEvents(ctx context.Context, jobID int64, limit int) ([]*models.Event, error)

	// CountEvents returns the total number of persisted events.
	CountEvents(ctx context.Context) (int64, error)

	// ============================================
	// UNKNOWN SIGNATURE OPERATIONS
	// ============================================

	// ReplaceUnknownSignatures replaces the job's persisted signature
	// aggregation with the top-N counts by frequency.
	ReplaceUnknownSignatures(ctx context.Context, jobID int64, counts map[string]int64, topN int) error

	// ListUnknownSignatures returns a job's signatures, most frequent first.
	ListUnknownSignatures(ctx context.Context, jobID int64) ([]*models.UnknownSignature, error)

	// ============================================
	// REPORT PACK OPERATIONS
	// ============================================

	// CreateReportPack records an exported bundle and returns its id.
	CreateReportPack(ctx context.Context, pack *models.ReportPack) (string, error)

	// GetReportPack returns a report pack by id.
	// Returns models.ErrReportPackNotFound if it doesn't exist.
	GetReportPack(ctx context.Context, id string) (*models.ReportPack, error)

	// ListReportPacks returns all report packs, newest first.
	ListReportPacks(ctx context.Context) ([]*models.ReportPack, error)

	// ============================================
	// SEARCH
	// ============================================

	// SearchPlayers matches the query against player natural ids and
	// aliases (case-insensitive substring).
	SearchPlayers(ctx context.Context, query string) ([]*SearchMatch, error)

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}
