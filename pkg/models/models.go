// Package models defines the persisted entities of the ingest pipeline:
// source files, upload sessions, ingest jobs, raw blocks, dictionary tables,
// events and their supporting records.
package models

import (
	"time"
)

// UploadStatus is the lifecycle state of an upload session.
type UploadStatus string

const (
	// UploadStatusOpen means the session is still accepting chunks.
	UploadStatusOpen UploadStatus = "OPEN"
	// UploadStatusFinalized means the session content has been hashed and
	// interned as a SourceFile. Finalized sessions are immutable.
	UploadStatusFinalized UploadStatus = "FINALIZED"
)

// JobStatus is the lifecycle state of an ingest job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// TimestampQuality is the confidence tier of a resolved block timestamp.
type TimestampQuality string

const (
	// QualityAbsolute means the timestamp was parsed as a full date+time.
	QualityAbsolute TimestampQuality = "ABSOLUTE"
	// QualityRelative means the timestamp was resolved relative to the last
	// absolute timestamp or the job date ("yesterday at ...", "today at ...").
	QualityRelative TimestampQuality = "RELATIVE"
	// QualityTimeOnly means only a clock time was present; the date was
	// inferred from the anchor.
	QualityTimeOnly TimestampQuality = "TIME_ONLY"
	// QualityUnknown means the timestamp text could not be parsed.
	QualityUnknown TimestampQuality = "UNKNOWN"
)

// RawBlockCodec identifies the compression codec of a raw block blob.
const RawBlockCodec = "zstd"

// SourceFile is an immutable content-addressed transcript file.
// Created by upload finalization, never mutated, retained indefinitely.
type SourceFile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SHA256    string    `gorm:"column:sha256;uniqueIndex;not null;size:64" json:"sha256"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Size      int64     `gorm:"not null" json:"size"`
	URI       string    `gorm:"not null;size:500" json:"uri"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for SourceFile.
func (SourceFile) TableName() string { return "source_file" }

// UploadSession tracks a multi-chunk upload until finalization.
//
// ReceivedChunks is kept sorted. Once Status is FINALIZED, FinalSHA256 either
// equals an existing SourceFile digest (dedupe hit) or identifies a newly
// created SourceFile.
type UploadSession struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	Filename       string       `gorm:"not null;size:255" json:"filename"`
	Size           int64        `gorm:"not null" json:"size"`
	ChunkSize      int64        `gorm:"not null" json:"chunk_size"`
	ExpectedChunks *int         `json:"expected_chunks,omitempty"`
	ReceivedChunks ChunkSet     `gorm:"type:text" json:"received_chunks"`
	TempPrefix     string       `gorm:"not null;size:500" json:"temp_prefix"`
	Status         UploadStatus `gorm:"not null;size:20;default:OPEN" json:"status"`
	FinalSHA256    *string      `gorm:"column:final_sha256;size:64" json:"final_sha256,omitempty"`
	FinalURI       *string      `gorm:"size:500" json:"final_uri,omitempty"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for UploadSession.
func (UploadSession) TableName() string { return "upload_session" }

// Finalized reports whether the session has been finalized.
func (s *UploadSession) Finalized() bool { return s.Status == UploadStatusFinalized }

// IngestJob drives one pass of the pipeline over a source file.
//
// Status transitions are monotone on a single successful lease:
// queued -> running -> completed|failed.
type IngestJob struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceFileID string     `gorm:"not null;size:36;index" json:"source_file_id"`
	Status       JobStatus  `gorm:"not null;size:40;default:queued" json:"status"`
	Progress     JSONMap    `gorm:"type:text" json:"progress,omitempty"`
	Stats        JSONMap    `gorm:"type:text" json:"stats,omitempty"`
	ErrorText    string     `gorm:"type:text" json:"error_text,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	SourceFile   SourceFile `gorm:"foreignKey:SourceFileID" json:"-"`
}

// TableName returns the table name for IngestJob.
func (IngestJob) TableName() string { return "ingest_job" }

// RawBlock is a sealed, zstd-compressed batch of consecutive source lines.
// (RawBlock.ID, raw line index) uniquely identifies any captured source line
// and is stable across time.
type RawBlock struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	SourceFileID string    `gorm:"not null;size:36;index" json:"source_file_id"`
	URI          string    `gorm:"not null;size:500" json:"uri"`
	Codec        string    `gorm:"not null;size:20;default:zstd" json:"codec"`
	LineCount    int       `gorm:"not null" json:"line_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for RawBlock.
func (RawBlock) TableName() string { return "raw_block" }

// DictEventType interns event type keys (BANK_WITHDRAW, PHONE_TRANSFER, ...).
type DictEventType struct {
	ID  int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Key string `gorm:"uniqueIndex;not null;size:100" json:"key"`
}

// TableName returns the table name for DictEventType.
func (DictEventType) TableName() string { return "dict_event_type" }

// DictItem interns item names.
type DictItem struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:200" json:"name"`
}

// TableName returns the table name for DictItem.
func (DictItem) TableName() string { return "dict_item" }

// DictContainer interns container keys. Keys of the form
// "portbagaj_<playerId>_..." carry the owning player's natural id.
type DictContainer struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Key           string  `gorm:"uniqueIndex;not null;size:200" json:"key"`
	OwnerPlayerID *string `gorm:"size:50" json:"owner_player_id,omitempty"`
}

// TableName returns the table name for DictContainer.
func (DictContainer) TableName() string { return "dict_container" }

// DictPlayer interns player natural ids as they appear in transcripts.
type DictPlayer struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID string `gorm:"uniqueIndex;not null;size:50" json:"player_id"`
}

// TableName returns the table name for DictPlayer.
func (DictPlayer) TableName() string { return "dict_player" }

// DictAlias maps observed display names to interned players.
type DictAlias struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID int64  `gorm:"not null;uniqueIndex:idx_dict_alias_player_alias" json:"player_id"`
	Alias    string `gorm:"not null;size:200;index;uniqueIndex:idx_dict_alias_player_alias" json:"alias"`
}

// TableName returns the table name for DictAlias.
func (DictAlias) TableName() string { return "dict_alias" }

// Event is a typed, deduplicated fact derived from one payload line.
//
// The table is range-partitioned by OccurredAt on PostgreSQL (monthly, plus a
// default partition for events without a timestamp). DedupeKey is unique
// across all partitions; replayed inserts are silently ignored.
type Event struct {
	ID            string           `gorm:"primaryKey;size:36" json:"id"`
	SourceFileID  string           `gorm:"not null;size:36" json:"source_file_id"`
	IngestJobID   int64            `gorm:"not null;index" json:"ingest_job_id"`
	ParserID      string           `gorm:"not null;size:50" json:"parser_id"`
	ParserVersion string           `gorm:"not null;size:20" json:"parser_version"`
	OccurredAt    *time.Time       `json:"occurred_at,omitempty"`
	Quality       TimestampQuality `gorm:"column:occurred_at_quality;not null;size:20" json:"occurred_at_quality"`
	EventTypeID   int64            `gorm:"not null" json:"event_type_id"`
	SrcPlayerID   *int64           `json:"src_player_id,omitempty"`
	DstPlayerID   *int64           `json:"dst_player_id,omitempty"`
	ItemID        *int64           `json:"item_id,omitempty"`
	ContainerID   *int64           `json:"container_id,omitempty"`
	Money         *int64           `json:"money,omitempty"`
	Qty           *int64           `json:"qty,omitempty"`
	Metadata      JSONMap          `gorm:"type:text" json:"metadata,omitempty"`
	RawBlockID    string           `gorm:"not null;size:36" json:"raw_block_id"`
	RawLineIndex  int              `gorm:"not null" json:"raw_line_index"`
	GlobalLineNo  int64            `gorm:"not null" json:"global_line_no"`
	DedupeKey     string           `gorm:"not null;size:64;uniqueIndex" json:"dedupe_key"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Event.
func (Event) TableName() string { return "event" }

// UnknownSignature aggregates payload lines no parser produced events for,
// per job. Only the top 50 signatures by count are persisted.
type UnknownSignature struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	IngestJobID int64     `gorm:"not null;index" json:"ingest_job_id"`
	Signature   string    `gorm:"not null;size:400" json:"signature"`
	Count       int64     `gorm:"not null;default:1" json:"count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for UnknownSignature.
func (UnknownSignature) TableName() string { return "unknown_signature" }

// ReportPack records an exported ZIP bundle of filtered events and evidence.
type ReportPack struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:200" json:"name"`
	Filters   JSONMap   `gorm:"type:text" json:"filters,omitempty"`
	URI       string    `gorm:"not null;size:500" json:"uri"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for ReportPack.
func (ReportPack) TableName() string { return "report_pack" }

// AllModels returns every persisted model for AutoMigrate-based backends.
func AllModels() []any {
	return []any{
		&SourceFile{},
		&UploadSession{},
		&IngestJob{},
		&RawBlock{},
		&DictEventType{},
		&DictItem{},
		&DictContainer{},
		&DictPlayer{},
		&DictAlias{},
		&Event{},
		&UnknownSignature{},
		&ReportPack{},
	}
}
