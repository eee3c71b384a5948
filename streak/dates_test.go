package streak

import (
	"testing"
	"time"
)

func TestDayUsesUTCCalendar(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*60*60)
	west := time.FixedZone("UTC-8", -8*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "utc midnight unchanged",
			in:   d(2024, 1, 2),
			want: d(2024, 1, 2),
		},
		{
			name: "early morning east of utc is still the previous utc day",
			in:   time.Date(2024, 1, 2, 1, 0, 0, 0, east),
			want: d(2024, 1, 1),
		},
		{
			name: "late evening west of utc is already the next utc day",
			in:   time.Date(2024, 1, 1, 20, 0, 0, 0, west),
			want: d(2024, 1, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Day(tt.in); !got.Equal(tt.want) {
				t.Errorf("Day(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDistinctDaysCollapsesZones(t *testing.T) {
	east := time.FixedZone("UTC+3", 3*60*60)
	// Both timestamps fall on 2024-06-01 UTC.
	ts := []time.Time{
		time.Date(2024, 6, 1, 23, 30, 0, 0, east),
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	days := DistinctDays(ts, d(2024, 6, 2))
	if len(days) != 1 || !days[0].Equal(d(2024, 6, 1)) {
		t.Errorf("DistinctDays = %v, want [2024-06-01]", days)
	}
}
