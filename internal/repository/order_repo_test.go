package repository

import "testing"

func TestFormatOrderNumber(t *testing.T) {
	tests := []struct {
		year    int
		counter int
		want    string
	}{
		{2026, 1, "OS-2026-00001"},
		{2026, 42, "OS-2026-00042"},
		{2026, 99999, "OS-2026-99999"},
		// The counter is never reset mid-year; beyond five digits it widens.
		{2026, 100000, "OS-2026-100000"},
		{2027, 1, "OS-2027-00001"},
	}

	for _, tt := range tests {
		if got := FormatOrderNumber(tt.year, tt.counter); got != tt.want {
			t.Errorf("FormatOrderNumber(%d, %d) = %q, want %q", tt.year, tt.counter, got, tt.want)
		}
	}
}
