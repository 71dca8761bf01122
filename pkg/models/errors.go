package models

import "errors"

// Domain errors returned by the store layer. Handlers map these onto HTTP
// problem responses (404 not-found, 409 conflict, 422 validation).
var (
	ErrSourceFileNotFound = errors.New("source file not found")
	ErrUploadNotFound     = errors.New("upload session not found")
	ErrUploadFinalized    = errors.New("upload session already finalized")
	ErrUploadIncomplete   = errors.New("upload session is missing chunks")
	ErrJobNotFound        = errors.New("ingest job not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrRawBlockNotFound   = errors.New("raw block not found")
	ErrLineOutOfRange     = errors.New("line index out of range")
	ErrReportPackNotFound = errors.New("report pack not found")
	ErrNoQueuedJob        = errors.New("no queued ingest job")
)
