package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for pipeline operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Keys carry their component prefix (ingest., upload., storage.).
const (
	// ========================================================================
	// Client attributes (HTTP surface)
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrRequestID  = "http.request_id"

	// ========================================================================
	// Ingest attributes
	// ========================================================================
	AttrJobID        = "ingest.job_id"
	AttrSourceFileID = "ingest.source_file_id"
	AttrSourceSHA256 = "ingest.source_sha256"
	AttrParserID     = "ingest.parser_id"
	AttrEventType    = "ingest.event_type"
	AttrLineNo       = "ingest.line_no"
	AttrLinesRead    = "ingest.lines_read"
	AttrEventCount   = "ingest.events"
	AttrDedupeHits   = "ingest.dedupe_hits"
	AttrUnknownLines = "ingest.unknown_lines"
	AttrQuality      = "ingest.timestamp_quality"

	// ========================================================================
	// Upload attributes
	// ========================================================================
	AttrUploadID    = "upload.id"
	AttrChunkIndex  = "upload.chunk_index"
	AttrChunkCount  = "upload.chunks"
	AttrUploadBytes = "upload.bytes"

	// ========================================================================
	// Storage attributes
	// ========================================================================
	AttrRawBlockID = "storage.raw_block_id"
	AttrBlobURI    = "storage.uri"
	AttrBlobBytes  = "storage.bytes"
	AttrReportPack = "storage.report_pack_id"

	// ========================================================================
	// Query attributes
	// ========================================================================
	AttrSearchQuery = "search.query"
	AttrResultCount = "result.count"
)

// Span names for operations.
// Format: <component>.<operation>.
const (
	SpanJobRun        = "ingest.job"
	SpanJobLease      = "ingest.lease"
	SpanBlockParse    = "ingest.parse_block"
	SpanEventPersist  = "ingest.persist_event"
	SpanRawBlockFlush = "ingest.flush_raw_block"

	SpanUploadCreate   = "upload.create"
	SpanUploadChunk    = "upload.chunk"
	SpanUploadFinalize = "upload.finalize"

	SpanReportBuild = "report.build"

	SpanStoreQuery = "store.query"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// RequestID returns an attribute for the HTTP request id
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// JobID returns an attribute for the ingest job id
func JobID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrJobID, id)
}

// SourceFileID returns an attribute for the source file id
func SourceFileID(id string) attribute.KeyValue {
	return attribute.String(AttrSourceFileID, id)
}

// SourceSHA256 returns an attribute for the source content digest
func SourceSHA256(digest string) attribute.KeyValue {
	return attribute.String(AttrSourceSHA256, digest)
}

// ParserID returns an attribute for the parser identifier
func ParserID(id string) attribute.KeyValue {
	return attribute.String(AttrParserID, id)
}

// EventType returns an attribute for the event type key
func EventType(key string) attribute.KeyValue {
	return attribute.String(AttrEventType, key)
}

// LineNo returns an attribute for the global line number
func LineNo(n int64) attribute.KeyValue {
	return attribute.Int64(AttrLineNo, n)
}

// LinesRead returns an attribute for the number of lines consumed
func LinesRead(n int64) attribute.KeyValue {
	return attribute.Int64(AttrLinesRead, n)
}

// EventCount returns an attribute for the number of events emitted
func EventCount(n int64) attribute.KeyValue {
	return attribute.Int64(AttrEventCount, n)
}

// DedupeHits returns an attribute for the number of dedupe conflicts
func DedupeHits(n int64) attribute.KeyValue {
	return attribute.Int64(AttrDedupeHits, n)
}

// UnknownLines returns an attribute for the number of unmatched payload lines
func UnknownLines(n int64) attribute.KeyValue {
	return attribute.Int64(AttrUnknownLines, n)
}

// Quality returns an attribute for the timestamp quality tier
func Quality(q string) attribute.KeyValue {
	return attribute.String(AttrQuality, q)
}

// UploadID returns an attribute for the upload session id
func UploadID(id string) attribute.KeyValue {
	return attribute.String(AttrUploadID, id)
}

// ChunkIndex returns an attribute for a chunk index
func ChunkIndex(i int) attribute.KeyValue {
	return attribute.Int(AttrChunkIndex, i)
}

// ChunkCount returns an attribute for the number of chunks
func ChunkCount(n int) attribute.KeyValue {
	return attribute.Int(AttrChunkCount, n)
}

// UploadBytes returns an attribute for uploaded byte count
func UploadBytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrUploadBytes, n)
}

// RawBlockID returns an attribute for a raw block id
func RawBlockID(id string) attribute.KeyValue {
	return attribute.String(AttrRawBlockID, id)
}

// BlobURI returns an attribute for a blob URI
func BlobURI(uri string) attribute.KeyValue {
	return attribute.String(AttrBlobURI, uri)
}

// BlobBytes returns an attribute for blob byte count
func BlobBytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBlobBytes, n)
}

// ReportPackID returns an attribute for a report pack id
func ReportPackID(id string) attribute.KeyValue {
	return attribute.String(AttrReportPack, id)
}

// SearchQuery returns an attribute for a search query string
func SearchQuery(q string) attribute.KeyValue {
	return attribute.String(AttrSearchQuery, q)
}

// ResultCount returns an attribute for a result set size
func ResultCount(n int) attribute.KeyValue {
	return attribute.Int(AttrResultCount, n)
}

// StartJobSpan starts the root span for one ingest job run.
// This is a convenience function that sets common attributes.
func StartJobSpan(ctx context.Context, jobID int64, sourceFileID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		JobID(jobID),
		SourceFileID(sourceFileID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanJobRun, trace.WithAttributes(allAttrs...))
}

// StartUploadSpan starts a span for an upload session operation.
func StartUploadSpan(ctx context.Context, operation, uploadID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UploadID(uploadID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "upload."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a persistence operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "store."+operation, trace.WithAttributes(attrs...))
}

// StartReportSpan starts a span for a report pack build.
func StartReportSpan(ctx context.Context, packID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ReportPackID(packID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanReportBuild, trace.WithAttributes(allAttrs...))
}
