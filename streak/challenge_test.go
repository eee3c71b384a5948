package streak

import (
	"testing"
	"time"
)

func TestChallengeHasFailed(t *testing.T) {
	today := d(2024, 1, 31)

	tests := []struct {
		name        string
		completions []time.Time
		want        bool
	}{
		{
			name: "no completions never fails",
		},
		{
			name:        "single completion",
			completions: []time.Time{d(2024, 1, 1)},
			want:        false,
		},
		{
			name:        "unbroken run",
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)},
			want:        false,
		},
		{
			name:        "one missed day is tolerated",
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 3)},
			want:        false,
		},
		{
			name:        "three day gap fails",
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 4)},
			want:        true,
		},
		{
			name:        "two missed days across the span fails",
			completions: []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 5)},
			want:        true,
		},
		{
			name: "two separated single misses fail on span count",
			completions: []time.Time{
				d(2024, 1, 1), d(2024, 1, 3), d(2024, 1, 4), d(2024, 1, 6),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChallengeHasFailed(tt.completions, today); got != tt.want {
				t.Errorf("ChallengeHasFailed() = %t, want %t", got, tt.want)
			}
		})
	}
}
