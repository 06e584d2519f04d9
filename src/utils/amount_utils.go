package utils

import (
	"strconv"
	"strings"
)

// StripGroupingSeparators removes the thousands-separator commas the dashboard
// stores inside amount display strings.
func StripGroupingSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// ParseAmount parses an amount display string to a number. Malformed amounts
// parse to 0 rather than erroring; a bad record must not break a report.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(StripGroupingSeparators(s)), 64)
	if err != nil {
		return 0
	}
	return v
}
