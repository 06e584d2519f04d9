package engine

import (
	"strconv"
	"strings"

	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/utils"
)

// Index normalizes raw records in place: parses the epoch-millis timestamp,
// coalesces the legacy "muted" flag into Done, and derives the display date.
// Already-indexed records pass through untouched, so re-running over the same
// slice is a no-op. Malformed fields never raise; a record with an unparseable
// timestamp simply never matches a date-bounded filter.
func Index(records []*models.TransactionRecord) []*models.TransactionRecord {
	for _, r := range records {
		if r == nil || r.Indexed {
			continue
		}
		millis, err := strconv.ParseInt(strings.TrimSpace(r.Timestamp), 10, 64)
		if err == nil {
			r.TimestampMillis = millis
			r.HasTimestamp = true
			r.DateDisplay = utils.FormatDisplayDate(millis)
		} else {
			r.TimestampMillis = 0
			r.HasTimestamp = false
			r.DateDisplay = ""
		}
		r.Done = coalesceCompleted(r)
		r.Indexed = true
	}
	return records
}

// coalesceCompleted resolves the completion flag once, here, so nothing
// downstream ever looks at the legacy field again.
func coalesceCompleted(r *models.TransactionRecord) bool {
	if r.Completed != nil {
		return *r.Completed
	}
	if r.Muted != nil {
		return *r.Muted
	}
	return false
}
