// streak implements the pure streak/failure computation engine.
// Everything in this package operates on calendar dates (UTC midnight)
// and in-memory slices — no storage, no clocks, no side effects.
package streak

import (
	"sort"
	"time"
)

// DateLayout is the wire format for calendar dates in API responses.
const DateLayout = "2006-01-02"

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DistinctDays collapses timestamps to unique calendar dates, sorted
// ascending. Dates after today are dropped — a clock-skewed or backdated
// completion must never count toward a streak before its day arrives.
func DistinctDays(ts []time.Time, today time.Time) []time.Time {
	cutoff := Day(today)
	seen := make(map[time.Time]struct{}, len(ts))
	days := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		d := Day(t)
		if d.After(cutoff) {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// daysBetween returns the number of whole calendar days from a to b.
// Positive when b is after a.
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// consecutiveRuns partitions sorted distinct days into maximal runs where
// each day follows the previous by exactly one day.
func consecutiveRuns(days []time.Time) [][]time.Time {
	if len(days) == 0 {
		return nil
	}
	var runs [][]time.Time
	start := 0
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) != 1 {
			runs = append(runs, days[start:i])
			start = i
		}
	}
	return append(runs, days[start:])
}

// DateRange returns every calendar date from start through end inclusive.
// Returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return nil
	}
	out := make([]time.Time, 0, daysBetween(s, e)+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func maxDay(a, b time.Time) time.Time {
	if Day(a).After(Day(b)) {
		return Day(a)
	}
	return Day(b)
}

func minDay(a, b time.Time) time.Time {
	if Day(a).Before(Day(b)) {
		return Day(a)
	}
	return Day(b)
}
