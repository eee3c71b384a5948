package streak

import (
	"reflect"
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	base := []time.Time{
		d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 10),
	}

	tests := []struct {
		name         string
		completions  []time.Time
		prevHighest  int
		today        time.Time
		wantCurrent  int
		wantHighest  int
		wantTotal    int
		wantLastDate *time.Time
	}{
		{
			name:        "empty history",
			completions: nil,
			today:       d(2024, 1, 10),
		},
		{
			name:         "runs with trailing single day",
			completions:  base,
			today:        d(2024, 1, 10),
			wantCurrent:  1,
			wantHighest:  3,
			wantTotal:    4,
			wantLastDate: timePtr(d(2024, 1, 10)),
		},
		{
			name:         "grace window keeps yesterday's run alive",
			completions:  base,
			today:        d(2024, 1, 11),
			wantCurrent:  1,
			wantHighest:  3,
			wantTotal:    4,
			wantLastDate: timePtr(d(2024, 1, 10)),
		},
		{
			name:         "streak lapses two days after last completion",
			completions:  base,
			today:        d(2024, 1, 12),
			wantCurrent:  0,
			wantHighest:  3,
			wantTotal:    4,
			wantLastDate: timePtr(d(2024, 1, 10)),
		},
		{
			name:         "previous highest never decreases",
			completions:  []time.Time{d(2024, 3, 1), d(2024, 3, 2)},
			prevHighest:  7,
			today:        d(2024, 3, 2),
			wantCurrent:  2,
			wantHighest:  7,
			wantTotal:    2,
			wantLastDate: timePtr(d(2024, 3, 2)),
		},
		{
			name:        "empty history keeps previous highest",
			completions: nil,
			prevHighest: 12,
			today:       d(2024, 3, 2),
			wantHighest: 12,
		},
		{
			name: "same-day duplicates collapse to one unit",
			completions: []time.Time{
				time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
				time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
				d(2024, 5, 2),
			},
			today:        d(2024, 5, 2),
			wantCurrent:  2,
			wantHighest:  2,
			wantTotal:    2,
			wantLastDate: timePtr(d(2024, 5, 2)),
		},
		{
			name:         "future-dated completions are excluded",
			completions:  []time.Time{d(2024, 5, 1), d(2024, 5, 9)},
			today:        d(2024, 5, 1),
			wantCurrent:  1,
			wantHighest:  1,
			wantTotal:    1,
			wantLastDate: timePtr(d(2024, 5, 1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.completions, tt.prevHighest, tt.today)
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.HighestStreak != tt.wantHighest {
				t.Errorf("HighestStreak = %d, want %d", got.HighestStreak, tt.wantHighest)
			}
			if got.TotalCompletions != tt.wantTotal {
				t.Errorf("TotalCompletions = %d, want %d", got.TotalCompletions, tt.wantTotal)
			}
			if (got.LastCompletion == nil) != (tt.wantLastDate == nil) {
				t.Fatalf("LastCompletion = %v, want %v", got.LastCompletion, tt.wantLastDate)
			}
			if got.LastCompletion != nil && !got.LastCompletion.Equal(*tt.wantLastDate) {
				t.Errorf("LastCompletion = %v, want %v", got.LastCompletion, tt.wantLastDate)
			}
		})
	}
}

func TestCalculateIdempotent(t *testing.T) {
	completions := []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 5)}
	today := d(2024, 1, 6)

	first := Calculate(completions, 0, today)
	for i := 0; i < 5; i++ {
		if got := Calculate(completions, first.HighestStreak, today); !reflect.DeepEqual(got, first) {
			t.Fatalf("recompute %d changed output: %+v != %+v", i, got, first)
		}
	}
}

func TestCalculateSuperSingleCompletionOverride(t *testing.T) {
	got := CalculateSuper([]time.Time{d(2024, 2, 1)}, 0, d(2024, 2, 1))
	if got.HighestStreak != 1 {
		t.Errorf("HighestStreak = %d, want 1", got.HighestStreak)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", got.CurrentStreak)
	}
	if got.TotalCompletions != 1 {
		t.Errorf("TotalCompletions = %d, want 1", got.TotalCompletions)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
