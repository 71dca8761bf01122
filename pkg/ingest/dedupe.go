package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DedupeKey derives the content-addressed identity of an emitted event.
// Identical source content replayed through any job always yields the same
// key, which is what makes re-ingest idempotent.
func DedupeKey(sourceDigest string, globalLineNo int64, eventTypeID int64, eventTypeKey string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d:%s", sourceDigest, globalLineNo, eventTypeID, eventTypeKey))
	return hex.EncodeToString(h[:])
}
