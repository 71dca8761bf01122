package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/pkg/models"
)

func bucharest(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	return loc
}

func feedAll(n *Normalizer, lines []string) []*Block {
	var blocks []*Block
	for i, text := range lines {
		if b := n.Feed(Line{Text: text, RawBlockID: "blk", RawLineIndex: i, GlobalLineNo: int64(i + 1)}); b != nil {
			blocks = append(blocks, b)
		}
	}
	if b := n.Flush(); b != nil {
		blocks = append(blocks, b)
	}
	return blocks
}

func TestNormalizeBankBlock(t *testing.T) {
	loc := bucharest(t)
	jobDate := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)
	n := New(jobDate, DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"— 12/03/2024 14:05",
		"Retragere Banca",
		"John[42] a retras 1.000$",
	})

	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "Retragere Banca", b.Title)
	assert.Equal(t, models.QualityAbsolute, b.Quality)
	require.NotNil(t, b.OccurredAt)
	assert.Equal(t, 2024, b.OccurredAt.Year())
	assert.Equal(t, time.March, b.OccurredAt.Month())
	assert.Equal(t, 12, b.OccurredAt.Day())
	assert.Equal(t, 14, b.OccurredAt.Hour())
	assert.Equal(t, 5, b.OccurredAt.Minute())

	require.Len(t, b.Payload, 1)
	assert.Equal(t, "John[42] a retras 1.000$", b.Payload[0].Text)
	assert.Equal(t, 2, b.Payload[0].RawLineIndex)
	assert.Equal(t, int64(3), b.Payload[0].GlobalLineNo)
}

func TestNormalizeMojibakeHeader(t *testing.T) {
	loc := bucharest(t)
	n := New(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"â€” 12/03/2024 14:05",
		"ğŸ’µ Telefon",
		"Jucătorului: Ana(7) i-au fost luati 500 $",
	})

	require.Len(t, blocks, 1)
	assert.Equal(t, "ğŸ’µ Telefon", blocks[0].Title)
	assert.Equal(t, models.QualityAbsolute, blocks[0].Quality)
}

func TestRelativeYesterday(t *testing.T) {
	loc := bucharest(t)
	n := New(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"— 12/03/2024 14:05",
		"Retragere Banca",
		"John[42] a retras 10$",
		"— yesterday at 09:30",
		"Depunere Banca",
		"John[42] a depozitat 10$",
	})

	require.Len(t, blocks, 2)
	rel := blocks[1]
	assert.Equal(t, models.QualityRelative, rel.Quality)
	require.NotNil(t, rel.OccurredAt)
	assert.Equal(t, 11, rel.OccurredAt.Day())
	assert.Equal(t, time.March, rel.OccurredAt.Month())
	assert.Equal(t, 9, rel.OccurredAt.Hour())
	assert.Equal(t, 30, rel.OccurredAt.Minute())
}

func TestTimeOnlyAnchorsToJobDate(t *testing.T) {
	loc := bucharest(t)
	jobDate := time.Date(2024, 6, 15, 8, 0, 0, 0, loc)
	n := New(jobDate, DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"— 9:30 PM",
		"Retragere Banca",
		"John[42] a retras 10$",
	})

	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, models.QualityTimeOnly, b.Quality)
	require.NotNil(t, b.OccurredAt)
	assert.Equal(t, 15, b.OccurredAt.Day())
	assert.Equal(t, 21, b.OccurredAt.Hour())
	assert.Equal(t, 30, b.OccurredAt.Minute())
}

func TestUnparseableTimestampIsUnknown(t *testing.T) {
	loc := bucharest(t)
	n := New(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"— ceva care nu e data",
		"Retragere Banca",
		"John[42] a retras 10$",
	})

	require.Len(t, blocks, 1)
	assert.Equal(t, models.QualityUnknown, blocks[0].Quality)
	assert.Nil(t, blocks[0].OccurredAt)
}

func TestAnchorMonotone(t *testing.T) {
	loc := bucharest(t)
	r := newTimestampResolver(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	at, q := r.Resolve("12/03/2024 14:05")
	require.Equal(t, models.QualityAbsolute, q)
	require.NotNil(t, at)
	anchorAfterAbsolute := r.anchor()

	// RELATIVE, TIME_ONLY and UNKNOWN resolutions must not move the anchor.
	_, q = r.Resolve("yesterday at 09:30")
	assert.Equal(t, models.QualityRelative, q)
	assert.Equal(t, anchorAfterAbsolute, r.anchor())

	_, q = r.Resolve("10:00")
	assert.Equal(t, models.QualityTimeOnly, q)
	assert.Equal(t, anchorAfterAbsolute, r.anchor())

	_, q = r.Resolve("garbage text")
	assert.Equal(t, models.QualityUnknown, q)
	assert.Equal(t, anchorAfterAbsolute, r.anchor())
}

func TestNoiseAndEmptyLinesDiscarded(t *testing.T) {
	loc := bucharest(t)
	n := New(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"",
		"   ",
		"Made by Synked with ❤️ & ☕",
		"Made by Synked with â¤ï¸ & â˜•",
	})
	assert.Empty(t, blocks)
}

func TestPayloadCleaning(t *testing.T) {
	loc := bucharest(t)
	n := New(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), DateOrderDMY, loc)

	blocks := feedAll(n, []string{
		"— 12/03/2024 14:05",
		"Server Connect",
		"<@123456> **John[42]** se `conecteaza`",
	})

	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Payload, 1)
	assert.Equal(t, "John[42] se conecteaza", blocks[0].Payload[0].Text)
}

func TestTitleHeuristics(t *testing.T) {
	tests := []struct {
		line  string
		title bool
	}{
		{"Retragere Banca", true},
		{"💵 Telefon", true},
		{"⚠️ Obiect aruncat pe jos", true},
		{"Ceva Nou (Beta)", true},
		{"o linie de text obisnuita fara nimic special in ea care e lunga", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.title, isTitle(tt.line), "line %q", tt.line)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"14:05", 14, 5, true},
		{"9:30 PM", 21, 30, true},
		{"9:30pm", 21, 30, true},
		{"12:00 AM", 0, 0, true},
		{"12:00 PM", 12, 0, true},
		{"25:00", 0, 0, false},
		{"9:75", 0, 0, false},
		{"not a clock", 0, 0, false},
	}
	for _, tt := range tests {
		hour, minute, ok := parseClock(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.hour, hour, "input %q", tt.in)
			assert.Equal(t, tt.minute, minute, "input %q", tt.in)
		}
	}
}
