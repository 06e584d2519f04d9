package services

import (
	"context"
	"errors"

	"github.com/username/moneydesk/backend/src/models"
)

var (
	ErrRecordNotFound = errors.New("transfer record not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrNotPayable     = errors.New("ticket is not awaiting finance")
)

// FilterOutcome is one filter response. Seq is the request's sequence number;
// Superseded is set when a newer filter request was issued before this one
// finished, in which case the result must not be applied.
type FilterOutcome struct {
	Records    []*models.TransactionRecord `json:"records"`
	Seq        uint64                      `json:"seq"`
	Superseded bool                        `json:"superseded"`
}

// TransferService owns the authoritative in-memory record collection and the
// filter pipeline over it.
type TransferService interface {
	LoadRecords() error
	ListRecords() []*models.TransactionRecord
	AddRecord(ctx context.Context, record *models.TransactionRecord) (*models.TransactionRecord, error)
	UpdateRecord(ctx context.Context, record *models.TransactionRecord) (*models.TransactionRecord, error)
	SetCompleted(ctx context.Context, id string, done bool) (*models.TransactionRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	Filter(ctx context.Context, spec models.FilterSpec) (*FilterOutcome, error)
	DailySummary() ([]models.DaySummary, error)
}

// ReconService runs reconciliation passes over the ticket snapshot.
type ReconService interface {
	Preview(ctx context.Context, pastedText string) ([]models.ReconcileMatch, error)
	Settle(ctx context.Context, orderIDs []string) ([]models.SettleOutcome, error)
}

// ProgressSink receives fractional progress during a chunked filter pass.
type ProgressSink interface {
	PublishProgress(seq uint64, processed, total int)
}

// Notifier delivers the post-settlement summary to the finance team.
type Notifier interface {
	SendSettlementSummary(settled, failed int, details string) error
}
