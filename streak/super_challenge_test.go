package streak

import (
	"errors"
	"testing"
	"time"
)

func TestEvaluateSuperChallenge(t *testing.T) {
	window := SuperWindow{
		StartDate: d(2024, 1, 1),
		EndDate:   d(2024, 1, 31),
		StartedAt: d(2024, 1, 1),
	}

	tests := []struct {
		name        string
		window      SuperWindow
		completions []time.Time
		today       time.Time
		wantFailed  bool
		wantMissed  []time.Time
	}{
		{
			name:   "no evaluable history on the first day",
			window: window,
			today:  d(2024, 1, 1),
		},
		{
			name:        "today is never counted as missed",
			window:      window,
			completions: []time.Time{d(2024, 1, 1)},
			today:       d(2024, 1, 2),
		},
		{
			name:        "single missed day survives",
			window:      window,
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 3)},
			today:       d(2024, 1, 4),
			wantMissed:  []time.Time{d(2024, 1, 2)},
		},
		{
			name:        "two consecutive missed days fail",
			window:      window,
			completions: []time.Time{d(2024, 1, 1)},
			today:       d(2024, 1, 4),
			wantFailed:  true,
			wantMissed:  []time.Time{d(2024, 1, 2), d(2024, 1, 3)},
		},
		{
			name:        "two scattered missed days fail",
			window:      window,
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 3), d(2024, 1, 5)},
			today:       d(2024, 1, 7),
			wantFailed:  true,
			wantMissed:  []time.Time{d(2024, 1, 2), d(2024, 1, 4), d(2024, 1, 6)},
		},
		{
			name: "late joiner is only judged from their own start",
			window: SuperWindow{
				StartDate: d(2024, 1, 1),
				EndDate:   d(2024, 1, 31),
				StartedAt: d(2024, 1, 10),
			},
			completions: []time.Time{d(2024, 1, 10), d(2024, 1, 11)},
			today:       d(2024, 1, 12),
		},
		{
			name:        "empty history in a populated window is a failure, not a crash",
			window:      window,
			completions: nil,
			today:       d(2024, 1, 4),
			wantFailed:  true,
			wantMissed:  []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateSuperChallenge(tt.window, tt.completions, tt.today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsFailed != tt.wantFailed {
				t.Errorf("IsFailed = %t, want %t", got.IsFailed, tt.wantFailed)
			}
			if len(got.Missed) != len(tt.wantMissed) {
				t.Fatalf("Missed = %v, want %v", got.Missed, tt.wantMissed)
			}
			for i := range got.Missed {
				if !got.Missed[i].Equal(tt.wantMissed[i]) {
					t.Errorf("Missed[%d] = %v, want %v", i, got.Missed[i], tt.wantMissed[i])
				}
			}
		})
	}
}

func TestEvaluateSuperChallengeInvalidRange(t *testing.T) {
	window := SuperWindow{
		StartDate: d(2024, 2, 1),
		EndDate:   d(2024, 1, 1),
		StartedAt: d(2024, 2, 1),
	}
	if _, err := EvaluateSuperChallenge(window, nil, d(2024, 2, 2)); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestSuperFailureReason(t *testing.T) {
	window := SuperWindow{
		StartDate: d(2024, 1, 1),
		EndDate:   d(2024, 1, 5),
		StartedAt: d(2024, 1, 1),
	}

	t.Run("multiple days missed", func(t *testing.T) {
		completions := []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 4)}
		reason, err := SuperFailureReason(window, completions, d(2024, 1, 6))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reason == nil {
			t.Fatal("reason = nil, want multiple_days_missed")
		}
		if reason.Kind != ReasonMultipleDaysMissed {
			t.Errorf("Kind = %q, want %q", reason.Kind, ReasonMultipleDaysMissed)
		}
		want := []time.Time{d(2024, 1, 3), d(2024, 1, 5)}
		if len(reason.MissedDates) != len(want) {
			t.Fatalf("MissedDates = %v, want %v", reason.MissedDates, want)
		}
		for i := range want {
			if !reason.MissedDates[i].Equal(want[i]) {
				t.Errorf("MissedDates[%d] = %v, want %v", i, reason.MissedDates[i], want[i])
			}
		}
	})

	t.Run("consecutive takes priority", func(t *testing.T) {
		completions := []time.Time{d(2024, 1, 1), d(2024, 1, 4)}
		reason, err := SuperFailureReason(window, completions, d(2024, 1, 6))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reason == nil || reason.Kind != ReasonConsecutiveDaysMissed {
			t.Fatalf("reason = %+v, want %q", reason, ReasonConsecutiveDaysMissed)
		}
		if len(reason.FirstPair) != 2 || !reason.FirstPair[0].Equal(d(2024, 1, 2)) || !reason.FirstPair[1].Equal(d(2024, 1, 3)) {
			t.Errorf("FirstPair = %v, want [2024-01-02 2024-01-03]", reason.FirstPair)
		}
	})

	t.Run("window is clipped at the super challenge end date", func(t *testing.T) {
		completions := []time.Time{
			d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4), d(2024, 1, 5),
		}
		reason, err := SuperFailureReason(window, completions, d(2024, 1, 20))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reason != nil {
			t.Fatalf("reason = %+v, want nil for a fully completed window", reason)
		}
	})

	t.Run("not enough missed days yields no reason", func(t *testing.T) {
		completions := []time.Time{d(2024, 1, 1), d(2024, 1, 3), d(2024, 1, 4), d(2024, 1, 5)}
		reason, err := SuperFailureReason(window, completions, d(2024, 1, 6))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reason != nil {
			t.Fatalf("reason = %+v, want nil", reason)
		}
	})
}
