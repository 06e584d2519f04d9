package engine

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/utils"
)

func record(id string, millis int64, done bool) *models.TransactionRecord {
	r := &models.TransactionRecord{
		ID:        id,
		Timestamp: strconv.FormatInt(millis, 10),
		Completed: &done,
	}
	Index([]*models.TransactionRecord{r})
	return r
}

func evaluate(t *testing.T, records []*models.TransactionRecord, spec models.FilterSpec) []*models.TransactionRecord {
	t.Helper()
	ev := NewEvaluator(3, 0, nil)
	result, err := ev.Evaluate(context.Background(), records, spec, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return result
}

func ids(records []*models.TransactionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a []*models.TransactionRecord, want []string) bool {
	if len(a) != len(want) {
		return false
	}
	for i, r := range a {
		if r.ID != want[i] {
			return false
		}
	}
	return true
}

func TestEvaluateDateBoundaries(t *testing.T) {
	const day = "2025-03-10"
	dayStart, err := utils.DayStartMillis(day)
	if err != nil {
		t.Fatal(err)
	}
	dayEnd, err := utils.DayEndMillis(day)
	if err != nil {
		t.Fatal(err)
	}

	records := []*models.TransactionRecord{
		record("at-midnight", dayStart, false),
		record("last-milli", dayEnd, false),
		record("next-day", dayEnd+1, false),
		record("day-before", dayStart-1, false),
	}

	result := evaluate(t, records, models.FilterSpec{StartDate: day, EndDate: day})
	if !equalIDs(result, []string{"last-milli", "at-midnight"}) {
		t.Errorf("day-bounded filter returned %v", ids(result))
	}
}

func TestEvaluateDateBoundariesAreFixedZone(t *testing.T) {
	// 2025-03-10 00:00:00 UTC+7 == 2025-03-09 17:00:00 UTC. A host running in
	// any other zone must still pick the same boundary.
	dayStart, err := utils.DayStartMillis("2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	wantStart := time.Date(2025, 3, 9, 17, 0, 0, 0, time.UTC).UnixMilli()
	if dayStart != wantStart {
		t.Errorf("DayStartMillis = %d, want %d", dayStart, wantStart)
	}
}

func TestEvaluateStatusPartition(t *testing.T) {
	records := []*models.TransactionRecord{
		record("a", 100, false),
		record("b", 200, true),
		record("c", 300, false),
		record("d", 400, true),
	}

	active := evaluate(t, records, models.FilterSpec{Status: models.StatusActive})
	completed := evaluate(t, records, models.FilterSpec{Status: models.StatusCompleted})
	all := evaluate(t, records, models.FilterSpec{Status: models.StatusAll})

	if len(active)+len(completed) != len(all) || len(all) != len(records) {
		t.Fatalf("partition broken: active=%d completed=%d all=%d", len(active), len(completed), len(all))
	}
	seen := map[string]bool{}
	for _, r := range active {
		if r.Done {
			t.Errorf("active result contains completed record %s", r.ID)
		}
		seen[r.ID] = true
	}
	for _, r := range completed {
		if !r.Done {
			t.Errorf("completed result contains active record %s", r.ID)
		}
		if seen[r.ID] {
			t.Errorf("record %s appears in both partitions", r.ID)
		}
	}
}

func TestEvaluateAccentInsensitiveSearch(t *testing.T) {
	target := record("hit", 100, false)
	target.Note = "Nguyễn Văn A"
	other := record("miss", 200, false)
	other.Note = "Trần B"
	records := []*models.TransactionRecord{target, other}

	for _, needle := range []string{"nguyen van a", "NGUYEN", "Nguyễn"} {
		result := evaluate(t, records, models.FilterSpec{SearchText: needle})
		if !equalIDs(result, []string{"hit"}) {
			t.Errorf("search %q returned %v, want [hit]", needle, ids(result))
		}
	}
}

func TestEvaluateSearchAcrossFields(t *testing.T) {
	byBank := record("bank", 400, false)
	byBank.Bank = "Vietcombank"
	byCustomer := record("customer", 300, false)
	byCustomer.CustomerInfo = "Đặng Hồng 0901"
	byAmount := record("amount", 200, false)
	byAmount.Amount = "1,500,000"
	noMatch := record("none", 100, false)
	records := []*models.TransactionRecord{byBank, byCustomer, byAmount, noMatch}

	tests := []struct {
		needle string
		want   []string
	}{
		{"vietcom", []string{"bank"}},
		{"dang hong", []string{"customer"}},
		{"1500000", []string{"amount"}},
		{"1,500,000", []string{"amount"}},
		{"absent", nil},
	}
	for _, tt := range tests {
		result := evaluate(t, records, models.FilterSpec{SearchText: tt.needle})
		if !equalIDs(result, tt.want) {
			t.Errorf("search %q returned %v, want %v", tt.needle, ids(result), tt.want)
		}
	}
}

func TestEvaluateSortOrder(t *testing.T) {
	records := []*models.TransactionRecord{
		record("old", 100, false),
		record("tie-done", 500, true),
		record("tie-open", 500, false),
		record("new", 900, true),
	}

	result := evaluate(t, records, models.FilterSpec{})
	if !equalIDs(result, []string{"new", "tie-open", "tie-done", "old"}) {
		t.Errorf("sort order = %v", ids(result))
	}
}

func TestEvaluateMalformedTimestampResilience(t *testing.T) {
	good := record("good", 500, false)
	bad := &models.TransactionRecord{ID: "bad", Timestamp: "oops", Completed: boolPtr(true)}
	Index([]*models.TransactionRecord{bad})
	records := []*models.TransactionRecord{good, bad}

	// Date-bounded: the malformed record can never satisfy a bound.
	bounded := evaluate(t, records, models.FilterSpec{StartDate: "1970-01-01"})
	if !equalIDs(bounded, []string{"good"}) {
		t.Errorf("bounded filter returned %v, want [good]", ids(bounded))
	}

	// Unbounded: it is still visible, and status filters still apply.
	completed := evaluate(t, records, models.FilterSpec{Status: models.StatusCompleted})
	if !equalIDs(completed, []string{"bad"}) {
		t.Errorf("unbounded completed filter returned %v, want [bad]", ids(completed))
	}
}

func TestEvaluateInvalidSpecRejected(t *testing.T) {
	ev := NewEvaluator(10, 0, nil)
	if _, err := ev.Evaluate(context.Background(), nil, models.FilterSpec{Status: "bogus"}, nil); err == nil {
		t.Error("invalid status must reject")
	}
	if _, err := ev.Evaluate(context.Background(), nil, models.FilterSpec{StartDate: "10/03/2025"}, nil); err == nil {
		t.Error("invalid start date must reject")
	}
}

func TestEvaluateProgressReporting(t *testing.T) {
	var records []*models.TransactionRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(strconv.Itoa(i), int64(i), false))
	}

	var reports [][2]int
	ev := NewEvaluator(4, 0, nil)
	_, err := ev.Evaluate(context.Background(), records, models.FilterSpec{}, func(processed, total int) {
		reports = append(reports, [2]int{processed, total})
	})
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]int{{4, 10}, {8, 10}, {10, 10}}
	if len(reports) != len(want) {
		t.Fatalf("got %d progress reports, want %d: %v", len(reports), len(want), reports)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Errorf("report %d = %v, want %v", i, reports[i], want[i])
		}
	}
}

func TestEvaluateCancellation(t *testing.T) {
	var records []*models.TransactionRecord
	for i := 0; i < 100; i++ {
		records = append(records, record(strconv.Itoa(i), int64(i), false))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := NewEvaluator(10, 0, nil)
	if _, err := ev.Evaluate(ctx, records, models.FilterSpec{}, nil); err == nil {
		t.Error("cancelled context must abort the scan")
	}
}
