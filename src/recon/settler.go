package recon

import (
	"context"

	"github.com/username/moneydesk/backend/src/models"
)

// TicketStore marks a single ticket settled in the backing store.
type TicketStore interface {
	MarkSettled(ctx context.Context, orderID string) error
}

// ValidOrderIDs extracts the ticket ids of matches ready to settle. This is
// the batch-commit request shape handed back by the host UI.
func ValidOrderIDs(matches []models.ReconcileMatch) []string {
	var ids []string
	for _, m := range matches {
		if m.Classification == models.MatchValid && m.Ticket != nil {
			ids = append(ids, m.Ticket.OrderID)
		}
	}
	return ids
}

// SettleAll commits the batch as independent per-ticket updates. There is no
// cross-ticket atomicity: a failure on one ticket does not stop the others,
// and the caller receives one outcome per ticket so a partial success can be
// reported accurately.
func SettleAll(ctx context.Context, store TicketStore, orderIDs []string) []models.SettleOutcome {
	outcomes := make([]models.SettleOutcome, 0, len(orderIDs))
	for _, id := range orderIDs {
		outcome := models.SettleOutcome{OrderID: id}
		if err := store.MarkSettled(ctx, id); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Settled = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
