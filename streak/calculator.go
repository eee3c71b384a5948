package streak

import "time"

// Summary is the derived streak state for one participation.
type Summary struct {
	CurrentStreak    int
	HighestStreak    int
	TotalCompletions int
	LastCompletion   *time.Time
}

// Calculate derives streak state from a participation's completion history.
// Completions are collapsed to distinct calendar dates, partitioned into
// maximal consecutive-day runs, and the final run counts as the current
// streak only while it still touches today or yesterday — a streak survives
// one day of grace because today's completion may still be ahead.
//
// prevHighest is the participation's stored highest streak; the result never
// goes below it, so the highest streak is monotonic across recomputes.
// Calling this any number of times with the same inputs yields the same
// output.
func Calculate(completions []time.Time, prevHighest int, today time.Time) Summary {
	return calculate(completions, prevHighest, today, false)
}

// CalculateSuper is the super-challenge variant of Calculate. The one
// difference: a history with exactly one completion date always yields a
// highest streak of at least 1, regardless of run partitioning.
func CalculateSuper(completions []time.Time, prevHighest int, today time.Time) Summary {
	return calculate(completions, prevHighest, today, true)
}

func calculate(completions []time.Time, prevHighest int, today time.Time, superVariant bool) Summary {
	days := DistinctDays(completions, today)
	if len(days) == 0 {
		return Summary{HighestStreak: prevHighest}
	}

	runs := consecutiveRuns(days)

	highest := 0
	for _, run := range runs {
		if len(run) > highest {
			highest = len(run)
		}
	}
	if superVariant && len(days) == 1 {
		highest = 1
	}
	if prevHighest > highest {
		highest = prevHighest
	}

	// The last run is current only while its final day is today or yesterday.
	current := 0
	lastRun := runs[len(runs)-1]
	if gap := daysBetween(lastRun[len(lastRun)-1], today); gap <= 1 {
		current = len(lastRun)
	}

	last := days[len(days)-1]
	return Summary{
		CurrentStreak:    current,
		HighestStreak:    highest,
		TotalCompletions: len(days),
		LastCompletion:   &last,
	}
}
