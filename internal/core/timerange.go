package core

import (
	"strings"
	"time"
)

const (
	// MinTimedGap is the shortest gap a manual end edit may leave before
	// the end is bumped to DefaultDuration instead.
	MinTimedGap = 5 * time.Minute
	// DefaultDuration is the fallback length for new and over-shortened events.
	DefaultDuration = time.Hour

	// defaultStartHour is where a range lands when it leaves all-day mode.
	defaultStartHour = 9
)

// Input layouts accepted by the boundary parsers.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// TimeRange is a canonical, valid event time range. End is always exclusive;
// for an all-day range both boundaries are day-aligned.
type TimeRange struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

// DefaultRange returns the seed range for a fresh booking around now: the
// next full hour, one DefaultDuration long.
func DefaultRange(now time.Time) TimeRange {
	start := now.Truncate(time.Hour).Add(time.Hour)
	return TimeRange{Start: start, End: start.Add(DefaultDuration)}
}

func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ToggleAllDay converts a range to or from all-day semantics.
//
// Switching to all-day collapses both boundaries to day granularity; the end
// lands at least one day after the truncated start so the range stays
// non-empty. Switching away restores a timed range at 09:00 on the start day,
// preserving the previous duration with a one-hour floor.
func ToggleAllDay(r TimeRange, makeAllDay bool) TimeRange {
	if makeAllDay == r.AllDay {
		return r
	}

	if makeAllDay {
		start := dayFloor(r.Start)
		end := dayFloor(r.End)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		return TimeRange{Start: start, End: end, AllDay: true}
	}

	dur := r.End.Sub(r.Start)
	if dur < DefaultDuration {
		dur = DefaultDuration
	}
	start := dayFloor(r.Start).Add(defaultStartHour * time.Hour)
	return TimeRange{Start: start, End: start.Add(dur)}
}

// ClampEnd guards against zero or negative durations from manual edits: an
// end closer than MinTimedGap to the start yields start+DefaultDuration.
func ClampEnd(start, proposedEnd time.Time) time.Time {
	if proposedEnd.Before(start.Add(MinTimedGap)) {
		return start.Add(DefaultDuration)
	}
	return proposedEnd
}

// ParseStartInput applies a raw start-boundary edit to the range. The second
// return value is false when the input cannot be parsed, in which case the
// range is returned unchanged rather than propagating a bad value.
//
// If the new start leaves the end before the minimum, the end is auto-extended.
func ParseStartInput(r TimeRange, raw string) (TimeRange, bool) {
	t, ok := parseBoundary(raw, r.AllDay, r.Start.Location())
	if !ok {
		return r, false
	}

	if r.AllDay {
		r.Start = dayFloor(t)
		if !r.End.After(r.Start) {
			r.End = r.Start.AddDate(0, 0, 1)
		}
		return r, true
	}

	r.Start = t
	r.End = ClampEnd(r.Start, r.End)
	return r, true
}

// ParseEndInput applies a raw end-boundary edit to the range. For an all-day
// range the input names the last included day; the stored end is the
// exclusive day after it, clamped to at least one day past the start. For a
// timed range the end passes through ClampEnd. Unparseable input returns the
// range unchanged with ok=false.
func ParseEndInput(r TimeRange, raw string) (TimeRange, bool) {
	t, ok := parseBoundary(raw, r.AllDay, r.End.Location())
	if !ok {
		return r, false
	}

	if r.AllDay {
		end := dayFloor(t).AddDate(0, 0, 1)
		min := dayFloor(r.Start).AddDate(0, 0, 1)
		if end.Before(min) {
			end = min
		}
		r.End = end
		return r, true
	}

	r.End = ClampEnd(r.Start, t)
	return r, true
}

// ParseBoundary parses a raw boundary edit without any clamping. The dialog
// uses it at submit time so that an uncorrected invalid combination is
// rejected with an error instead of being silently repaired.
func ParseBoundary(raw string, allDay bool, loc *time.Location) (time.Time, bool) {
	return parseBoundary(raw, allDay, loc)
}

func parseBoundary(raw string, allDay bool, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	layout := dateTimeLayout
	if allDay {
		layout = dateLayout
	}
	t, err := time.ParseInLocation(layout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatStart renders the start boundary in the layout the parsers accept.
func FormatStart(r TimeRange) string {
	if r.AllDay {
		return r.Start.Format(dateLayout)
	}
	return r.Start.Format(dateTimeLayout)
}

// FormatEnd renders the end boundary for editing. All-day ranges display the
// inclusive last day, not the stored exclusive end.
func FormatEnd(r TimeRange) string {
	if r.AllDay {
		return r.End.AddDate(0, 0, -1).Format(dateLayout)
	}
	return r.End.Format(dateTimeLayout)
}
