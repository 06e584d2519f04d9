package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/moneydesk/backend/src/engine"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestService(progress ProgressSink) *transferServiceImpl {
	evaluator := engine.NewEvaluator(2, 0, nil)
	reportCache := cache.New(time.Minute, time.Minute)
	svc := NewTransferService(evaluator, 30*time.Second, 10, reportCache, time.Minute, progress)
	return svc.(*transferServiceImpl)
}

func seedRecords(s *transferServiceImpl, records []*models.TransactionRecord) {
	engine.Index(records)
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

func TestFilterNotSupersededWhenSequential(t *testing.T) {
	s := newTestService(nil)
	seedRecords(s, []*models.TransactionRecord{
		{ID: "a", Timestamp: "1000"},
		{ID: "b", Timestamp: "2000"},
	})

	outcome, err := s.Filter(context.Background(), models.FilterSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Superseded {
		t.Error("lone filter request must not be superseded")
	}
	if len(outcome.Records) != 2 {
		t.Errorf("got %d records, want 2", len(outcome.Records))
	}
}

// bumpingSink simulates a newer filter request arriving while a pass is still
// running, by advancing the sequence counter from the progress callback.
type bumpingSink struct {
	svc    *transferServiceImpl
	bumped bool
}

func (b *bumpingSink) PublishProgress(seq uint64, processed, total int) {
	if !b.bumped {
		b.bumped = true
		b.svc.filterSeq.Add(1)
	}
}

func TestFilterSupersededByNewerRequest(t *testing.T) {
	sink := &bumpingSink{}
	s := newTestService(sink)
	sink.svc = s
	seedRecords(s, []*models.TransactionRecord{
		{ID: "a", Timestamp: "1000"},
		{ID: "b", Timestamp: "2000"},
		{ID: "c", Timestamp: "3000"},
	})

	outcome, err := s.Filter(context.Background(), models.FilterSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Superseded {
		t.Error("a request overtaken mid-pass must come back superseded")
	}
}

func TestDailySummaryAggregation(t *testing.T) {
	s := newTestService(nil)
	done := true
	seedRecords(s, []*models.TransactionRecord{
		{ID: "a", Timestamp: "1741539600000", Amount: "1,000"}, // 2025-03-10 UTC+7
		{ID: "b", Timestamp: "1741539660000", Amount: "500", Completed: &done},
		{ID: "c", Timestamp: "1741626000000", Amount: "2,000"}, // 2025-03-11 UTC+7
		{ID: "bad", Timestamp: "oops", Amount: "999"},          // never aggregated
	})

	summaries, err := s.DailySummary()
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d day summaries, want 2: %+v", len(summaries), summaries)
	}

	// Sorted newest day first.
	if summaries[0].Date != "2025-03-11" || summaries[0].Total != 2000 || summaries[0].Count != 1 {
		t.Errorf("day 0 = %+v", summaries[0])
	}
	if summaries[1].Date != "2025-03-10" || summaries[1].Total != 1500 || summaries[1].CompletedTotal != 500 || summaries[1].CompletedCount != 1 {
		t.Errorf("day 1 = %+v", summaries[1])
	}

	// Second read is served from the report cache.
	again, err := s.DailySummary()
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 {
		t.Errorf("cached summary has %d days, want 2", len(again))
	}
}
