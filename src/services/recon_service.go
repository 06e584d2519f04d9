package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/moneydesk/backend/src/database"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/recon"
	"github.com/username/moneydesk/backend/src/utils"
)

type reconServiceImpl struct {
	parserCfg recon.ParserConfig
	notifier  Notifier
}

func NewReconService(parserCfg recon.ParserConfig, notifier Notifier) ReconService {
	return &reconServiceImpl{
		parserCfg: parserCfg,
		notifier:  notifier,
	}
}

// Preview parses the pasted spreadsheet text and matches every row against
// the current ticket snapshot. Nothing is committed.
func (s *reconServiceImpl) Preview(ctx context.Context, pastedText string) ([]models.ReconcileMatch, error) {
	tickets, err := fetchTickets(ctx)
	if err != nil {
		return nil, err
	}

	rows := recon.ParseRows(pastedText, s.parserCfg)
	matches := recon.Reconcile(rows, tickets)
	logger.L.Info("Reconciliation preview computed", "rows", len(rows), "tickets", len(tickets))
	return matches, nil
}

// Settle marks the given tickets settled, one independent update per ticket.
// Partial failure is expected and reported per item, never short-circuited.
func (s *reconServiceImpl) Settle(ctx context.Context, orderIDs []string) ([]models.SettleOutcome, error) {
	outcomes := recon.SettleAll(ctx, s, orderIDs)

	settled, failed := 0, 0
	details := ""
	for _, o := range outcomes {
		if o.Settled {
			settled++
		} else {
			failed++
			details += fmt.Sprintf("%s: %s\n", o.OrderID, o.Error)
		}
	}
	logger.L.Info("Batch settle finished", "requested", len(orderIDs), "settled", settled, "failed", failed)

	if s.notifier != nil && len(outcomes) > 0 {
		// Best effort. A notification failure must not fail the settle.
		if err := s.notifier.SendSettlementSummary(settled, failed, details); err != nil {
			logger.L.Warn("Failed to send settlement summary", "error", err)
		}
	}
	return outcomes, nil
}

// MarkSettled implements recon.TicketStore. The status guard in the WHERE
// clause keeps an already-settled or goods-pending ticket from being paid
// twice.
func (s *reconServiceImpl) MarkSettled(ctx context.Context, orderID string) error {
	settledAt := utils.FormatDisplayDate(time.Now().UnixMilli())
	res, err := database.DB.ExecContext(ctx,
		`UPDATE tickets SET status = ?, settled_at = ? WHERE order_id = ? AND status = ?`,
		models.TicketCompleted, settledAt, orderID, models.TicketPendingFinance)
	if err != nil {
		return fmt.Errorf("error settling ticket %s: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking settle result for ticket %s: %w", orderID, err)
	}
	if n == 0 {
		return ErrNotPayable
	}
	return nil
}

func fetchTickets(ctx context.Context) ([]*models.Ticket, error) {
	rows, err := database.DB.QueryContext(ctx,
		`SELECT order_id, phone, customer_name, amount, status, COALESCE(settled_at, '') FROM tickets`)
	if err != nil {
		return nil, fmt.Errorf("error querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.OrderID, &t.Phone, &t.CustomerName, &t.Amount, &t.Status, &t.SettledAt); err != nil {
			return nil, fmt.Errorf("error scanning ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tickets: %w", err)
	}
	return tickets, nil
}
