package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
)

// FilterRequest is the message handed to a worker: the record snapshot, the
// query and the chunk size. Treated as a stable contract.
type FilterRequest struct {
	Records   []*models.TransactionRecord `json:"data"`
	Spec      models.FilterSpec           `json:"filterSpec"`
	ChunkSize int                         `json:"chunkSize"`
}

// FilterResponse is the worker's reply: the matched set on success, an error
// string otherwise.
type FilterResponse struct {
	Success bool                        `json:"success"`
	Result  []*models.TransactionRecord `json:"result,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

type filterJob struct {
	ctx   context.Context
	req   FilterRequest
	reply chan FilterResponse
}

// WorkerPool runs filter passes off the caller's goroutine. Workers are
// stateless and run the exact same chunked scan as the in-process path;
// delegation is a performance choice, never a semantic one.
type WorkerPool struct {
	jobs chan filterJob
	quit chan struct{}
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		jobs: make(chan filterJob),
		quit: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		go p.run(i)
	}
	logger.L.Info("Filter worker pool started", "workers", size)
	return p
}

func (p *WorkerPool) run(id int) {
	for {
		select {
		case job := <-p.jobs:
			job.reply <- execute(job.ctx, job.req)
		case <-p.quit:
			return
		}
	}
}

// execute runs one filter pass and never lets a panic escape the worker; a
// runtime failure comes back as an error response and the caller falls back
// to the in-process path.
func execute(ctx context.Context, req FilterRequest) (resp FilterResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = FilterResponse{Success: false, Error: fmt.Sprintf("worker panic: %v", rec)}
		}
	}()

	crit, err := compileSpec(req.Spec)
	if err != nil {
		return FilterResponse{Success: false, Error: err.Error()}
	}
	chunkSize := req.ChunkSize
	if chunkSize < 1 {
		chunkSize = 200
	}
	result, err := filterChunked(ctx, req.Records, crit, chunkSize, nil)
	if err != nil {
		return FilterResponse{Success: false, Error: err.Error()}
	}
	return FilterResponse{Success: true, Result: result}
}

// Filter delegates one request to the pool and waits for the reply or ctx
// cancellation. A worker-side failure is returned as an error so the
// evaluator can fall back.
func (p *WorkerPool) Filter(ctx context.Context, req FilterRequest) ([]*models.TransactionRecord, error) {
	job := filterJob{ctx: ctx, req: req, reply: make(chan FilterResponse, 1)}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, errors.New("worker pool stopped")
	}

	select {
	case resp := <-job.reply:
		if !resp.Success {
			return nil, errors.New(resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		// The in-flight pass runs to completion and is discarded.
		return nil, ctx.Err()
	}
}

func (p *WorkerPool) Stop() {
	close(p.quit)
}
