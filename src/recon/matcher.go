package recon

import (
	"strings"

	"github.com/username/moneydesk/backend/src/models"
)

// Reconcile matches each pasted row against the ticket snapshot and
// classifies its payment-readiness. Matching is exact order-id first
// (case-insensitive), then phone; an ambiguous phone prefers the ticket still
// awaiting finance and otherwise takes the first candidate with a note. An
// ambiguous phone is a policy choice, not an error.
func Reconcile(rows []models.PastedRow, tickets []*models.Ticket) []models.ReconcileMatch {
	byOrderID := make(map[string]*models.Ticket, len(tickets))
	byPhone := make(map[string][]*models.Ticket)
	for _, t := range tickets {
		if t == nil {
			continue
		}
		if t.OrderID != "" {
			byOrderID[strings.ToLower(t.OrderID)] = t
		}
		if t.Phone != "" {
			byPhone[t.Phone] = append(byPhone[t.Phone], t)
		}
	}

	matches := make([]models.ReconcileMatch, 0, len(rows))
	for _, row := range rows {
		ticket, note := resolve(row, byOrderID, byPhone)
		classification, message := classify(ticket)
		if note != "" {
			message += " (" + note + ")"
		}
		matches = append(matches, models.ReconcileMatch{
			Row:            row,
			Ticket:         ticket,
			Classification: classification,
			Message:        message,
		})
	}
	return matches
}

func resolve(row models.PastedRow, byOrderID map[string]*models.Ticket, byPhone map[string][]*models.Ticket) (*models.Ticket, string) {
	if row.RawID != "" {
		if t, ok := byOrderID[strings.ToLower(row.RawID)]; ok {
			return t, ""
		}
	}
	if row.Phone == "" {
		return nil, ""
	}

	candidates := byPhone[row.Phone]
	switch len(candidates) {
	case 0:
		return nil, ""
	case 1:
		return candidates[0], ""
	}
	for _, t := range candidates {
		if t.Status == models.TicketPendingFinance {
			return t, ""
		}
	}
	return candidates[0], "duplicate phone"
}

func classify(t *models.Ticket) (models.Classification, string) {
	if t == nil {
		return models.MatchGhost, "not found"
	}
	switch t.Status {
	case models.TicketPendingFinance:
		return models.MatchValid, "ready to settle"
	case models.TicketPendingGoods:
		return models.MatchError, "awaiting goods return, not payable"
	case models.TicketCompleted:
		return models.MatchDuplicate, "already settled"
	default:
		return models.MatchUnknown, string(t.Status)
	}
}
