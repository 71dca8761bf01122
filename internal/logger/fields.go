package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys consistently
// across all log statements for log aggregation and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// HTTP surface
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"

	// Ingest pipeline
	KeyJobID        = "job_id"
	KeySourceFileID = "source_file_id"
	KeyUploadID     = "upload_id"
	KeyRawBlockID   = "raw_block_id"
	KeyParserID     = "parser_id"
	KeyEventType    = "event_type"
	KeyLineNo       = "line_no"
	KeyLines        = "lines"
	KeyEvents       = "events"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAttempt    = "attempt"
)

// JobID returns a slog.Attr for an ingest job id.
func JobID(id int64) slog.Attr {
	return slog.Int64(KeyJobID, id)
}

// SourceFileID returns a slog.Attr for a source file id.
func SourceFileID(id string) slog.Attr {
	return slog.String(KeySourceFileID, id)
}

// Err returns a slog.Attr for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
