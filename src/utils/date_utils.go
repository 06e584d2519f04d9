package utils

import (
	"fmt"
	"time"
)

const DayDateFormat = "2006-01-02"

// FixedZone is the civil calendar every day boundary is computed in. The user
// base sits in one timezone; day boundaries must not drift with the host zone.
var FixedZone = time.FixedZone("UTC+7", 7*60*60)

// DayStartMillis returns epoch millis of 00:00:00.000 of the given calendar
// day in the fixed zone.
func DayStartMillis(dateStr string) (int64, error) {
	t, err := time.ParseInLocation(DayDateFormat, dateStr, FixedZone)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t.UnixMilli(), nil
}

// DayEndMillis returns epoch millis of 23:59:59.999 of the given calendar day
// in the fixed zone. Computed from calendar components, not by adding 24h.
func DayEndMillis(dateStr string) (int64, error) {
	t, err := time.ParseInLocation(DayDateFormat, dateStr, FixedZone)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, FixedZone)
	return end.UnixMilli(), nil
}

// FormatDisplayDate renders epoch millis as the dashboard's dd/mm/yyyy hh:mm
// display string, always in the fixed zone.
func FormatDisplayDate(millis int64) string {
	return time.UnixMilli(millis).In(FixedZone).Format("02/01/2006 15:04")
}

// DayKey buckets epoch millis into its UTC+7 calendar day.
func DayKey(millis int64) string {
	return time.UnixMilli(millis).In(FixedZone).Format(DayDateFormat)
}
