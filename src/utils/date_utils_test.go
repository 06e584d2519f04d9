package utils

import (
	"testing"
	"time"
)

func TestDayBounds(t *testing.T) {
	start, err := DayStartMillis("2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	end, err := DayEndMillis("2025-03-10")
	if err != nil {
		t.Fatal(err)
	}

	// 2025-03-10 00:00:00 UTC+7 is 2025-03-09 17:00:00 UTC, regardless of the
	// machine's local zone.
	wantStart := time.Date(2025, 3, 9, 17, 0, 0, 0, time.UTC).UnixMilli()
	if start != wantStart {
		t.Errorf("DayStartMillis = %d, want %d", start, wantStart)
	}
	if end != wantStart+24*60*60*1000-1 {
		t.Errorf("DayEndMillis = %d, want %d", end, wantStart+24*60*60*1000-1)
	}
}

func TestDayBoundsInvalidDate(t *testing.T) {
	if _, err := DayStartMillis("10/03/2025"); err == nil {
		t.Error("wrong format must error")
	}
	if _, err := DayEndMillis(""); err == nil {
		t.Error("empty date must error")
	}
}

func TestDayKeyRoundTrip(t *testing.T) {
	start, err := DayStartMillis("2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if got := DayKey(start); got != "2025-03-10" {
		t.Errorf("DayKey(start) = %q", got)
	}
	// One millisecond before the boundary belongs to the previous day.
	if got := DayKey(start - 1); got != "2025-03-09" {
		t.Errorf("DayKey(start-1) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1,500,000", 1500000},
		{"50000", 50000},
		{" 2,000 ", 2000},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.input); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
