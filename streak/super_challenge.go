package streak

import (
	"errors"
	"time"
)

// ErrInvalidDateRange is returned when a super challenge's end date falls
// before its start date.
var ErrInvalidDateRange = errors.New("end date is before start date")

// SuperWindow is the configuration a super-challenge evaluation runs over.
type SuperWindow struct {
	StartDate time.Time // super challenge window start (inclusive)
	EndDate   time.Time // super challenge window end (inclusive)
	StartedAt time.Time // when the participant joined
}

// Failure reason kinds, in priority order.
const (
	ReasonConsecutiveDaysMissed = "consecutive_days_missed"
	ReasonMultipleDaysMissed    = "multiple_days_missed"
)

// SuperResult is the outcome of a super-challenge failure evaluation.
type SuperResult struct {
	IsFailed bool
	Missed   []time.Time
}

// FailureReason explains why a super-challenge participation failed.
type FailureReason struct {
	Kind        string      `json:"reason"`
	FirstPair   []time.Time `json:"-"` // first consecutive missed pair, when Kind is consecutive
	MissedDates []time.Time `json:"-"` // full sorted missed set
}

func (w SuperWindow) effectiveStart() time.Time {
	return maxDay(w.StartDate, w.StartedAt)
}

func (w SuperWindow) validate() error {
	if Day(w.EndDate).Before(Day(w.StartDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// EvaluateSuperChallenge computes the missed-day set over the effective
// window and decides failure. The window runs from
// max(start_date, started_at) through yesterday — today is never counted as
// missed, because the participant can still complete it before the day ends.
// With no evaluable history yet (today-1 before the effective start) the
// result is not-failed with no missed days.
//
// Failure triggers when the missed set contains two adjacent dates, or two
// or more dates in total.
func EvaluateSuperChallenge(w SuperWindow, completions []time.Time, today time.Time) (SuperResult, error) {
	if err := w.validate(); err != nil {
		return SuperResult{}, err
	}
	missed := missedDays(w, completions, Day(today).AddDate(0, 0, -1))
	return SuperResult{IsFailed: missedTriggersFailure(missed), Missed: missed}, nil
}

// SuperFailureReason builds the structured explanation for a failed
// participation, over the window clipped to min(yesterday, end_date).
// Consecutive missed days take priority over the plain count. Returns nil
// when the missed set does not amount to a failure.
func SuperFailureReason(w SuperWindow, completions []time.Time, today time.Time) (*FailureReason, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	through := minDay(Day(today).AddDate(0, 0, -1), w.EndDate)
	missed := missedDays(w, completions, through)

	for i := 1; i < len(missed); i++ {
		if daysBetween(missed[i-1], missed[i]) == 1 {
			return &FailureReason{
				Kind:        ReasonConsecutiveDaysMissed,
				FirstPair:   []time.Time{missed[i-1], missed[i]},
				MissedDates: missed,
			}, nil
		}
	}
	if len(missed) >= 2 {
		return &FailureReason{Kind: ReasonMultipleDaysMissed, MissedDates: missed}, nil
	}
	return nil, nil
}

// missedDays returns window dates without a completion, sorted ascending.
func missedDays(w SuperWindow, completions []time.Time, through time.Time) []time.Time {
	start := w.effectiveStart()
	if through.Before(start) {
		return nil
	}

	done := make(map[time.Time]struct{}, len(completions))
	for _, c := range completions {
		done[Day(c)] = struct{}{}
	}

	var missed []time.Time
	for _, d := range DateRange(start, through) {
		if _, ok := done[d]; !ok {
			missed = append(missed, d)
		}
	}
	return missed
}

func missedTriggersFailure(missed []time.Time) bool {
	for i := 1; i < len(missed); i++ {
		if daysBetween(missed[i-1], missed[i]) == 1 {
			return true
		}
	}
	return len(missed) >= 2
}
