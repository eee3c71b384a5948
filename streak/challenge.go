package streak

import "time"

// AwardStreakThreshold is the highest streak at which a challenge or super
// challenge participation earns its one-time award.
const AwardStreakThreshold = 30

// ChallengeHasFailed reports whether a regular challenge participation has
// failed under the missed-day policy. Failure triggers when either:
//
//   - two adjacent completion dates are more than 2 calendar days apart
//     (at least two whole days missed in a row), or
//   - the inclusive span from first to last completion contains 2 or more
//     missed days in total.
//
// A participation with no completions yet cannot fail.
func ChallengeHasFailed(completions []time.Time, today time.Time) bool {
	days := DistinctDays(completions, today)
	if len(days) == 0 {
		return false
	}

	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) > 2 {
			return true
		}
	}

	span := daysBetween(days[0], days[len(days)-1]) + 1
	return span-len(days) >= 2
}
