package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/utils"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneydesk_filter_evaluations_total",
		Help: "Full filter passes, by execution path",
	}, []string{"path"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moneydesk_filter_evaluation_seconds",
		Help:    "Filter pass latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// Progress reports fractional progress after each processed chunk.
type Progress func(processed, total int)

// Evaluator runs FilterSpec queries over an indexed record slice. It processes
// records in fixed-size chunks and may delegate large inputs to a worker pool;
// both paths run the same chunked scan, so membership and ordering are
// identical either way.
type Evaluator struct {
	chunkSize       int
	workerThreshold int
	pool            *WorkerPool
}

func NewEvaluator(chunkSize, workerThreshold int, pool *WorkerPool) *Evaluator {
	if chunkSize < 1 {
		chunkSize = 200
	}
	return &Evaluator{
		chunkSize:       chunkSize,
		workerThreshold: workerThreshold,
		pool:            pool,
	}
}

// Evaluate returns the records matching spec, sorted newest first with
// incomplete records before completed ones on timestamp ties. The returned
// slice is a materialized copy of matching pointers; it is stale the moment
// the underlying collection mutates. Malformed record fields never error;
// the only rejection is an invalid query.
func (e *Evaluator) Evaluate(ctx context.Context, records []*models.TransactionRecord, spec models.FilterSpec, onProgress Progress) ([]*models.TransactionRecord, error) {
	crit, err := compileSpec(spec)
	if err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(evaluationDuration)
	defer timer.ObserveDuration()

	if e.pool != nil && len(records) >= e.workerThreshold && e.workerThreshold > 0 {
		result, err := e.pool.Filter(ctx, FilterRequest{
			Records:   records,
			Spec:      spec,
			ChunkSize: e.chunkSize,
		})
		if err == nil {
			evaluationsTotal.WithLabelValues("worker").Inc()
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.L.Warn("Worker delegation failed, falling back to in-process evaluation", "error", err, "records", len(records))
	}

	result, err := filterChunked(ctx, records, crit, e.chunkSize, onProgress)
	if err != nil {
		return nil, err
	}
	evaluationsTotal.WithLabelValues("main").Inc()
	return result, nil
}

// criteria is a FilterSpec compiled for the scan loop: date bounds resolved on
// the UTC+7 calendar, search needle folded once up front.
type criteria struct {
	startMillis int64
	endMillis   int64
	hasStart    bool
	hasEnd      bool
	status      models.RecordStatus
	needle      string // folded, for text fields
	plainNeedle string // separator-stripped, for the amount string
}

func compileSpec(spec models.FilterSpec) (criteria, error) {
	c := criteria{status: spec.Status}

	switch spec.Status {
	case "", models.StatusAll:
		c.status = models.StatusAll
	case models.StatusActive, models.StatusCompleted:
	default:
		return criteria{}, fmt.Errorf("invalid filter status %q", spec.Status)
	}

	if spec.StartDate != "" {
		millis, err := utils.DayStartMillis(spec.StartDate)
		if err != nil {
			return criteria{}, fmt.Errorf("invalid start date: %w", err)
		}
		c.startMillis, c.hasStart = millis, true
	}
	if spec.EndDate != "" {
		millis, err := utils.DayEndMillis(spec.EndDate)
		if err != nil {
			return criteria{}, fmt.Errorf("invalid end date: %w", err)
		}
		c.endMillis, c.hasEnd = millis, true
	}

	needle := strings.TrimSpace(spec.SearchText)
	if needle != "" {
		c.needle = FoldText(needle)
		c.plainNeedle = utils.StripGroupingSeparators(strings.ToLower(needle))
	}
	return c, nil
}

// filterChunked is the single scan implementation shared by the in-process
// path and the worker pool. It yields between chunks and honors ctx
// cancellation, so a superseded query can be abandoned mid-scan.
func filterChunked(ctx context.Context, records []*models.TransactionRecord, crit criteria, chunkSize int, onProgress Progress) ([]*models.TransactionRecord, error) {
	total := len(records)
	matched := make([]*models.TransactionRecord, 0, total/4+1)

	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		for _, r := range records[start:end] {
			if r != nil && matches(r, crit) {
				matched = append(matched, r)
			}
		}
		if onProgress != nil {
			onProgress(end, total)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// Yield between chunks so a long scan doesn't starve its neighbours.
		runtime.Gosched()
	}

	sortResult(matched)
	return matched, nil
}

func matches(r *models.TransactionRecord, c criteria) bool {
	if c.hasStart && (!r.HasTimestamp || r.TimestampMillis < c.startMillis) {
		return false
	}
	if c.hasEnd && (!r.HasTimestamp || r.TimestampMillis > c.endMillis) {
		return false
	}

	switch c.status {
	case models.StatusActive:
		if r.Done {
			return false
		}
	case models.StatusCompleted:
		if !r.Done {
			return false
		}
	}

	if c.needle == "" {
		return true
	}
	if strings.Contains(FoldText(r.Note), c.needle) ||
		strings.Contains(FoldText(r.Bank), c.needle) ||
		strings.Contains(FoldText(r.CustomerInfo), c.needle) {
		return true
	}
	// Amount is a plain numeric substring match, separators stripped on both
	// sides; no accent folding needed there.
	return c.plainNeedle != "" &&
		strings.Contains(utils.StripGroupingSeparators(strings.ToLower(r.Amount)), c.plainNeedle)
}

// sortResult orders newest first; on a timestamp tie the incomplete record
// comes before the completed one.
func sortResult(records []*models.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TimestampMillis != records[j].TimestampMillis {
			return records[i].TimestampMillis > records[j].TimestampMillis
		}
		return !records[i].Done && records[j].Done
	})
}
