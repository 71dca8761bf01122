package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/caseforge/caseforge/pkg/models"
)

// The capture tool emits two timestamp header styles. Both appear in proper
// UTF-8 and in a double-encoded (mojibake) variant depending on which export
// path produced the transcript, so the patterns accept both byte sequences
// verbatim.
var (
	timestampStyleA = regexp.MustCompile(`^(?:—|â€”)+\s*(.+)$`)
	timestampStyleB = regexp.MustCompile(`^Made by Synked(?:•|â€¢)(.+)$`)

	mentionRe = regexp.MustCompile(`<@!?\d+>`)
)

// noiseLines are discarded outright.
var noiseLines = map[string]struct{}{
	"Made by Synked with ❤️ & ☕":   {},
	"Made by Synked with â¤ï¸ & â˜•": {},
}

// knownTitles is the whitelist of block titles the parser family handles,
// in both encodings.
var knownTitles = map[string]struct{}{
	"Retragere Banca":          {},
	"Depunere Banca":           {},
	"Transfer (Bancar)":        {},
	"Ofera Bani":               {},
	"Ofera Item":               {},
	"💵 Telefon":                {},
	"ğŸ’µ Telefon":              {},
	"⚠️ Obiect aruncat pe jos":   {},
	"âš ï¸ Obiect aruncat pe jos": {},
	"Transfera Item":           {},
	"Server Connect":           {},
	"Server Disconnect":        {},
	"Give Money (K-Menu)":      {},
	"Give Item (K-Menu)":       {},
	"💎 Bijuterii":              {},
	"ğŸ’ Bijuterii":             {},
}

// titleGlyphs are decorative prefixes that mark a line as a title even when
// it is not in the whitelist.
var titleGlyphs = []string{"⚠️", "💵", "💎", "âš ï¸", "ğŸ’µ", "ğŸ’"}

// Normalizer is a single-pass state machine over the raw line stream.
//
// Feed returns the block flushed by a timestamp header, if any; Flush emits
// the final pending block at end of stream. Given identical input and an
// identical job date, normalization is pure and reproducible.
type Normalizer struct {
	resolver *timestampResolver

	title   string
	at      *time.Time
	quality models.TimestampQuality
	payload []PayloadLine
}

// New creates a Normalizer. jobDate anchors relative timestamps when no
// absolute timestamp has been seen yet; dateOrder disambiguates day-first
// versus month-first absolute dates.
func New(jobDate time.Time, dateOrder DateOrder, loc *time.Location) *Normalizer {
	return &Normalizer{
		resolver: newTimestampResolver(jobDate, dateOrder, loc),
		quality:  models.QualityUnknown,
	}
}

// Feed consumes one raw line. A non-nil result is the block that the line's
// timestamp header closed.
func (n *Normalizer) Feed(line Line) *Block {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return nil
	}
	if _, noise := noiseLines[text]; noise {
		return nil
	}

	if ts := matchTimestamp(text); ts != "" {
		flushed := n.flush()
		at, quality := n.resolver.Resolve(strings.TrimSpace(ts))
		n.at = at
		n.quality = quality
		n.title = ""
		return flushed
	}

	if n.title == "" && isTitle(text) {
		n.title = text
		return nil
	}

	n.payload = append(n.payload, PayloadLine{
		Text:         cleanPayload(text),
		RawBlockID:   line.RawBlockID,
		RawLineIndex: line.RawLineIndex,
		GlobalLineNo: line.GlobalLineNo,
	})
	return nil
}

// Flush emits the final pending block, or nil if it carries neither title
// nor payload.
func (n *Normalizer) Flush() *Block {
	return n.flush()
}

func (n *Normalizer) flush() *Block {
	if n.title == "" && len(n.payload) == 0 {
		n.reset()
		return nil
	}
	b := &Block{
		Title:      n.title,
		OccurredAt: n.at,
		Quality:    n.quality,
		Payload:    n.payload,
	}
	n.reset()
	return b
}

func (n *Normalizer) reset() {
	n.title = ""
	n.at = nil
	n.quality = models.QualityUnknown
	n.payload = nil
}

func matchTimestamp(line string) string {
	if m := timestampStyleA.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := timestampStyleB.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func isTitle(line string) bool {
	if _, known := knownTitles[line]; known {
		return true
	}
	for _, glyph := range titleGlyphs {
		if strings.HasPrefix(line, glyph) {
			return true
		}
	}
	// Short decorated lines like "Transfer (Bancar)" read as titles.
	if strings.Contains(line, "(") && strings.Contains(line, ")") && utf8.RuneCountInString(line) < 40 {
		return true
	}
	return false
}

func cleanPayload(line string) string {
	line = mentionRe.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "*", "")
	line = strings.ReplaceAll(line, "`", "")
	return strings.TrimSpace(line)
}
