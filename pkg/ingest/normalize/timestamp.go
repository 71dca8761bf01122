package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/caseforge/caseforge/pkg/models"
)

// DateOrder disambiguates numeric dates like 12/03/2024.
type DateOrder string

const (
	// DateOrderDMY treats 12/03/2024 as the 12th of March (default).
	DateOrderDMY DateOrder = "DMY"
	// DateOrderMDY treats 12/03/2024 as December 3rd.
	DateOrderMDY DateOrder = "MDY"
)

// DefaultTimezone is the timezone of the upstream game server.
const DefaultTimezone = "Europe/Bucharest"

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([APap])[Mm])?$`)

// timestampResolver resolves timestamp header text into an instant plus a
// quality tier.
//
// Resolution is hierarchical: a bare clock time anchors to the date of the
// last absolute timestamp (or the job date); "yesterday"/"today" shift that
// anchor; anything else is parsed as a full absolute timestamp. Only a
// successful absolute parse moves the anchor.
type timestampResolver struct {
	loc          *time.Location
	jobDate      time.Time
	dateOrder    DateOrder
	lastAbsolute *time.Time
}

func newTimestampResolver(jobDate time.Time, dateOrder DateOrder, loc *time.Location) *timestampResolver {
	if loc == nil {
		loc = time.UTC
	}
	if dateOrder == "" {
		dateOrder = DateOrderDMY
	}
	return &timestampResolver{
		loc:       loc,
		jobDate:   jobDate.In(loc),
		dateOrder: dateOrder,
	}
}

// Resolve parses the captured timestamp text. A nil time with
// QualityUnknown means the text was unparseable; the anchor is unchanged.
func (r *timestampResolver) Resolve(text string) (*time.Time, models.TimestampQuality) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "at "))
	lower := strings.ToLower(text)
	anchor := r.anchor()

	if clockRe.MatchString(text) {
		if t, ok := r.onDate(anchor, text); ok {
			return &t, models.QualityTimeOnly
		}
		return nil, models.QualityUnknown
	}

	if strings.Contains(lower, "yesterday") {
		if t, ok := r.onDate(anchor.AddDate(0, 0, -1), afterLastAt(text)); ok {
			return &t, models.QualityRelative
		}
		return nil, models.QualityUnknown
	}

	if strings.Contains(lower, "today") {
		if t, ok := r.onDate(anchor, afterLastAt(text)); ok {
			return &t, models.QualityRelative
		}
		return nil, models.QualityUnknown
	}

	parsed, err := dateparse.ParseIn(text, r.loc, dateparse.PreferMonthFirst(r.dateOrder == DateOrderMDY))
	if err != nil {
		return nil, models.QualityUnknown
	}
	parsed = parsed.In(r.loc)
	r.lastAbsolute = &parsed
	return &parsed, models.QualityAbsolute
}

// anchor returns the date context for relative and time-only timestamps.
func (r *timestampResolver) anchor() time.Time {
	if r.lastAbsolute != nil {
		return *r.lastAbsolute
	}
	return r.jobDate
}

// onDate combines a clock string with the date component of base.
func (r *timestampResolver) onDate(base time.Time, clock string) (time.Time, bool) {
	hour, minute, ok := parseClock(clock)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, r.loc), true
}

// afterLastAt extracts the clock portion of "yesterday at 09:30" style text.
func afterLastAt(text string) string {
	if i := strings.LastIndex(text, "at"); i >= 0 {
		return strings.TrimSpace(text[i+len("at"):])
	}
	return strings.TrimSpace(text)
}

// parseClock parses "14:05", "9:30 PM" or "9:30pm".
func parseClock(s string) (int, int, bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, false
	}
	switch strings.ToUpper(m[3]) {
	case "P":
		if hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case "A":
		if hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
