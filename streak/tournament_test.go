package streak

import "testing"

func TestEvaluateTournament(t *testing.T) {
	tests := []struct {
		name            string
		outcomes        []DayOutcome
		alreadyFailed   bool
		wantTotal       int
		wantConsecutive int
		wantFailed      bool
	}{
		{
			name: "no outcomes yet",
		},
		{
			name: "clean sheet",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 1), Completed: true},
				{Date: d(2024, 1, 2), Completed: true},
			},
		},
		{
			name: "single miss survives",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 1), Completed: true},
				{Date: d(2024, 1, 2), Completed: false},
				{Date: d(2024, 1, 3), Completed: true},
			},
			wantTotal: 1,
		},
		{
			name: "two trailing misses terminate",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 1), Completed: true},
				{Date: d(2024, 1, 2), Completed: false},
				{Date: d(2024, 1, 3), Completed: false},
			},
			wantTotal:       2,
			wantConsecutive: 2,
			wantFailed:      true,
		},
		{
			name: "two scattered misses terminate on total",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 1), Completed: false},
				{Date: d(2024, 1, 2), Completed: true},
				{Date: d(2024, 1, 3), Completed: false},
				{Date: d(2024, 1, 4), Completed: true},
			},
			wantTotal:       2,
			wantConsecutive: 0,
			wantFailed:      true,
		},
		{
			name: "later completion does not clear a terminal failure",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 1), Completed: true},
				{Date: d(2024, 1, 2), Completed: false},
				{Date: d(2024, 1, 3), Completed: false},
				{Date: d(2024, 1, 4), Completed: true},
			},
			alreadyFailed:   true,
			wantTotal:       2,
			wantConsecutive: 0,
			wantFailed:      true,
		},
		{
			name: "outcomes arrive unordered",
			outcomes: []DayOutcome{
				{Date: d(2024, 1, 3), Completed: false},
				{Date: d(2024, 1, 1), Completed: true},
				{Date: d(2024, 1, 2), Completed: false},
			},
			wantTotal:       2,
			wantConsecutive: 2,
			wantFailed:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateTournament(tt.outcomes, tt.alreadyFailed)
			if got.TotalFailures != tt.wantTotal {
				t.Errorf("TotalFailures = %d, want %d", got.TotalFailures, tt.wantTotal)
			}
			if got.ConsecutiveFailures != tt.wantConsecutive {
				t.Errorf("ConsecutiveFailures = %d, want %d", got.ConsecutiveFailures, tt.wantConsecutive)
			}
			if got.IsFailed != tt.wantFailed {
				t.Errorf("IsFailed = %t, want %t", got.IsFailed, tt.wantFailed)
			}
		})
	}
}
