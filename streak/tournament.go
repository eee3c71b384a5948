package streak

import (
	"sort"
	"time"
)

// TournamentFailureLimit ends a tournament run once either the consecutive
// or the total failed-day count reaches it.
const TournamentFailureLimit = 2

// DayOutcome is one finalized tournament day for a participation: did the
// participant complete every tournament challenge on that date.
type DayOutcome struct {
	Date      time.Time
	Completed bool
}

// TournamentStanding is the failure state derived from a participation's
// full day-outcome history.
type TournamentStanding struct {
	TotalFailures       int
	ConsecutiveFailures int
	IsFailed            bool
}

// EvaluateTournament recomputes failure counters from the complete outcome
// sequence. ConsecutiveFailures counts trailing incomplete days scanning
// back from the most recent date. alreadyFailed keeps a previously failed
// participation failed — there is no un-failing, even if later days complete.
//
// The full rescan (rather than an incremental counter) is what makes the
// daily pass idempotent and self-healing after a missed run.
func EvaluateTournament(outcomes []DayOutcome, alreadyFailed bool) TournamentStanding {
	sorted := make([]DayOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool { return Day(sorted[i].Date).Before(Day(sorted[j].Date)) })

	var standing TournamentStanding
	for _, o := range sorted {
		if !o.Completed {
			standing.TotalFailures++
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Completed {
			break
		}
		standing.ConsecutiveFailures++
	}

	standing.IsFailed = alreadyFailed ||
		standing.ConsecutiveFailures >= TournamentFailureLimit ||
		standing.TotalFailures >= TournamentFailureLimit
	return standing
}
