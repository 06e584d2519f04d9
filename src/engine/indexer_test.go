package engine

import (
	"testing"

	"github.com/username/moneydesk/backend/src/models"
)

func boolPtr(b bool) *bool { return &b }

func TestIndexParsesTimestamp(t *testing.T) {
	r := &models.TransactionRecord{ID: "a", Timestamp: "1741539600000"}
	Index([]*models.TransactionRecord{r})

	if !r.Indexed {
		t.Fatal("record not marked indexed")
	}
	if !r.HasTimestamp || r.TimestampMillis != 1741539600000 {
		t.Errorf("timestamp not parsed: has=%v millis=%d", r.HasTimestamp, r.TimestampMillis)
	}
	if r.DateDisplay == "" {
		t.Error("display date not derived")
	}
}

func TestIndexMalformedTimestamp(t *testing.T) {
	r := &models.TransactionRecord{ID: "a", Timestamp: "not-a-number"}
	Index([]*models.TransactionRecord{r})

	if !r.Indexed {
		t.Fatal("record not marked indexed")
	}
	if r.HasTimestamp {
		t.Error("malformed timestamp must leave HasTimestamp false")
	}
}

func TestIndexCompletionCoalescing(t *testing.T) {
	tests := []struct {
		name      string
		completed *bool
		muted     *bool
		want      bool
	}{
		{"completed true", boolPtr(true), nil, true},
		{"completed false", boolPtr(false), nil, false},
		{"legacy muted true", nil, boolPtr(true), true},
		{"legacy muted false", nil, boolPtr(false), false},
		{"completed wins over muted", boolPtr(false), boolPtr(true), false},
		{"neither defaults to false", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.TransactionRecord{ID: "a", Timestamp: "1", Completed: tt.completed, Muted: tt.muted}
			Index([]*models.TransactionRecord{r})
			if r.Done != tt.want {
				t.Errorf("Done = %v, want %v", r.Done, tt.want)
			}
		})
	}
}

func TestIndexIdempotent(t *testing.T) {
	records := []*models.TransactionRecord{
		{ID: "a", Timestamp: "1741539600000", Muted: boolPtr(true)},
		{ID: "b", Timestamp: "garbage"},
	}
	Index(records)

	before := make([]models.TransactionRecord, len(records))
	for i, r := range records {
		before[i] = *r
	}

	Index(records)
	for i, r := range records {
		if *r != before[i] {
			t.Errorf("record %s changed on second index: %+v != %+v", r.ID, *r, before[i])
		}
	}
}

func TestIndexSkipsNil(t *testing.T) {
	records := []*models.TransactionRecord{nil, {ID: "a", Timestamp: "1"}}
	Index(records)
	if !records[1].Indexed {
		t.Error("non-nil record should still be indexed")
	}
}
