// Package normalize turns the raw transcript line stream into normalized
// blocks: contiguous groups of payload lines sharing one resolved timestamp
// and, optionally, a title.
package normalize

import (
	"time"

	"github.com/caseforge/caseforge/pkg/models"
)

// Line is one raw source line together with its evidence tuple.
type Line struct {
	Text         string
	RawBlockID   string
	RawLineIndex int
	GlobalLineNo int64
}

// PayloadLine is a cleaned payload line. It retains the evidence tuple of
// the raw line it was derived from.
type PayloadLine struct {
	Text         string
	RawBlockID   string
	RawLineIndex int
	GlobalLineNo int64
}

// Block is a normalized block emitted by the Normalizer.
type Block struct {
	Title      string
	OccurredAt *time.Time
	Quality    models.TimestampQuality
	Payload    []PayloadLine
}
