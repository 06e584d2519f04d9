package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/moneydesk/backend/src/database"
	"github.com/username/moneydesk/backend/src/engine"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/utils"
)

const (
	ckDailySummary = "agg_daily_summary"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type transferServiceImpl struct {
	mu      sync.RWMutex
	records []*models.TransactionRecord

	resultCache *engine.ResultCache
	reportCache *cache.Cache
	progress    ProgressSink

	reportExpiry time.Duration

	// Monotonic filter request counter. A result whose seq is behind the
	// counter at completion time was superseded and must not be applied.
	filterSeq atomic.Uint64
}

func NewTransferService(evaluator *engine.Evaluator, cacheTTL time.Duration, cacheCapacity int, reportCache *cache.Cache, reportExpiry time.Duration, progress ProgressSink) TransferService {
	s := &transferServiceImpl{
		reportCache:  reportCache,
		reportExpiry: reportExpiry,
		progress:     progress,
	}
	s.resultCache = engine.NewResultCache(evaluator.Evaluate, cacheTTL, cacheCapacity)
	return s
}

// LoadRecords pulls the whole collection out of SQLite and indexes it once.
// The in-memory slice is authoritative from then on; every mutation writes
// through to the store.
func (s *transferServiceImpl) LoadRecords() error {
	rows, err := database.DB.Query(`SELECT id, owner, note, bank, customer_info, amount, timestamp, completed FROM transfer_records`)
	if err != nil {
		return fmt.Errorf("error querying transfer records: %w", err)
	}
	defer rows.Close()

	var records []*models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		var completed bool
		if err := rows.Scan(&r.ID, &r.Owner, &r.Note, &r.Bank, &r.CustomerInfo, &r.Amount, &r.Timestamp, &completed); err != nil {
			return fmt.Errorf("error scanning transfer record: %w", err)
		}
		r.Completed = &completed
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over transfer records: %w", err)
	}

	engine.Index(records)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	logger.L.Info("Transfer records loaded", "count", len(records))
	return nil
}

func (s *transferServiceImpl) ListRecords() []*models.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

func (s *transferServiceImpl) AddRecord(ctx context.Context, record *models.TransactionRecord) (*models.TransactionRecord, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	engine.Index([]*models.TransactionRecord{record})

	_, err := database.DB.ExecContext(ctx,
		`INSERT INTO transfer_records (id, owner, note, bank, customer_info, amount, timestamp, completed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Owner, record.Note, record.Bank, record.CustomerInfo, record.Amount, record.Timestamp, record.Done)
	if err != nil {
		return nil, fmt.Errorf("error inserting transfer record %s: %w", record.ID, err)
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()

	s.invalidate()
	logger.L.Info("Transfer record added", "id", record.ID)
	return record, nil
}

func (s *transferServiceImpl) UpdateRecord(ctx context.Context, record *models.TransactionRecord) (*models.TransactionRecord, error) {
	engine.Index([]*models.TransactionRecord{record})

	res, err := database.DB.ExecContext(ctx,
		`UPDATE transfer_records SET owner = ?, note = ?, bank = ?, customer_info = ?, amount = ?, timestamp = ?, completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		record.Owner, record.Note, record.Bank, record.CustomerInfo, record.Amount, record.Timestamp, record.Done, record.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating transfer record %s: %w", record.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRecordNotFound
	}

	if !s.replace(record.ID, record) {
		return nil, ErrRecordNotFound
	}
	s.invalidate()
	logger.L.Info("Transfer record updated", "id", record.ID)
	return record, nil
}

func (s *transferServiceImpl) SetCompleted(ctx context.Context, id string, done bool) (*models.TransactionRecord, error) {
	s.mu.RLock()
	existing := s.find(id)
	s.mu.RUnlock()
	if existing == nil {
		return nil, ErrRecordNotFound
	}

	res, err := database.DB.ExecContext(ctx,
		`UPDATE transfer_records SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, done, id)
	if err != nil {
		return nil, fmt.Errorf("error toggling transfer record %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRecordNotFound
	}

	// Copy-on-write so an in-flight filter pass keeps a consistent snapshot.
	updated := *existing
	updated.Done = done
	updated.Completed = &done
	s.replace(id, &updated)
	s.invalidate()
	logger.L.Info("Transfer record status changed", "id", id, "completed", done)
	return &updated, nil
}

func (s *transferServiceImpl) DeleteRecord(ctx context.Context, id string) error {
	res, err := database.DB.ExecContext(ctx, `DELETE FROM transfer_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting transfer record %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}

	s.mu.Lock()
	next := make([]*models.TransactionRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	s.records = next
	s.mu.Unlock()

	s.invalidate()
	logger.L.Info("Transfer record deleted", "id", id)
	return nil
}

// Filter runs one query through the result cache. Each call takes the next
// sequence number; if a newer call was issued before this one finished, the
// outcome comes back marked superseded and the caller must discard it.
func (s *transferServiceImpl) Filter(ctx context.Context, spec models.FilterSpec) (*FilterOutcome, error) {
	seq := s.filterSeq.Add(1)

	s.mu.RLock()
	snapshot := s.records
	s.mu.RUnlock()

	var onProgress engine.Progress
	if s.progress != nil {
		onProgress = func(processed, total int) {
			s.progress.PublishProgress(seq, processed, total)
		}
	}

	records, err := s.resultCache.Get(ctx, snapshot, spec, onProgress)
	if err != nil {
		return nil, err
	}

	outcome := &FilterOutcome{
		Records:    records,
		Seq:        seq,
		Superseded: seq != s.filterSeq.Load(),
	}
	if outcome.Superseded {
		logger.L.Debug("Filter result superseded", "seq", seq, "latest", s.filterSeq.Load())
	}
	return outcome, nil
}

// DailySummary aggregates per-day totals on the UTC+7 calendar. The report is
// cached until the collection mutates or the expiry passes.
func (s *transferServiceImpl) DailySummary() ([]models.DaySummary, error) {
	if cached, found := s.reportCache.Get(ckDailySummary); found {
		logger.L.Debug("Cache hit for daily summary")
		return cached.([]models.DaySummary), nil
	}

	s.mu.RLock()
	snapshot := s.records
	s.mu.RUnlock()

	byDay := make(map[string]*models.DaySummary)
	for _, r := range snapshot {
		if r == nil || !r.HasTimestamp {
			continue
		}
		day := utils.DayKey(r.TimestampMillis)
		summary, ok := byDay[day]
		if !ok {
			summary = &models.DaySummary{Date: day}
			byDay[day] = summary
		}
		amount := utils.ParseAmount(r.Amount)
		summary.Total += amount
		summary.Count++
		if r.Done {
			summary.CompletedTotal += amount
			summary.CompletedCount++
		}
	}

	summaries := make([]models.DaySummary, 0, len(byDay))
	for _, summary := range byDay {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Date > summaries[j].Date })

	s.reportCache.Set(ckDailySummary, summaries, s.reportExpiry)
	return summaries, nil
}

func (s *transferServiceImpl) invalidate() {
	s.resultCache.Invalidate()
	s.reportCache.Delete(ckDailySummary)
}

// find expects s.mu held.
func (s *transferServiceImpl) find(id string) *models.TransactionRecord {
	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// replace swaps the record with the given id for a fresh pointer, leaving any
// snapshot held by an in-flight scan untouched.
func (s *transferServiceImpl) replace(id string, record *models.TransactionRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			next := make([]*models.TransactionRecord, len(s.records))
			copy(next, s.records)
			next[i] = record
			s.records = next
			return true
		}
	}
	return false
}
