package models

// RecordStatus selects which completion states a filter admits.
type RecordStatus string

const (
	StatusAll       RecordStatus = "all"
	StatusActive    RecordStatus = "active"
	StatusCompleted RecordStatus = "completed"
)

// TransactionRecord is one money-transfer line. Raw fields come straight from
// the client/store; the derived fields are filled in exactly once by the
// engine indexer and are the only ones the filter path reads.
type TransactionRecord struct {
	ID           string `json:"id"`
	Owner        string `json:"owner,omitempty"`
	Note         string `json:"note,omitempty"`
	Bank         string `json:"bank,omitempty"`
	CustomerInfo string `json:"customerInfo,omitempty"`
	// Amount is kept as the display string, thousands separators included.
	Amount string `json:"amount,omitempty"`
	// Timestamp is the raw epoch-millis value as a string, as stored.
	Timestamp string `json:"timestamp"`
	Completed *bool  `json:"completed,omitempty"`
	// Muted is the legacy name for the completion flag. Old records carry it
	// instead of "completed"; the indexer coalesces the two.
	Muted *bool `json:"muted,omitempty"`

	// Derived by engine.Index. TimestampMillis is only meaningful when
	// HasTimestamp is true.
	TimestampMillis int64  `json:"-"`
	HasTimestamp    bool   `json:"-"`
	Done            bool   `json:"done"`
	DateDisplay     string `json:"dateDisplay,omitempty"`
	Indexed         bool   `json:"-"`
}

// FilterSpec describes one query over the record collection. Treated as
// immutable once built; equality is structural over the four fields.
type FilterSpec struct {
	StartDate  string       `json:"startDate,omitempty"` // "2006-01-02", inclusive, UTC+7 civil day
	EndDate    string       `json:"endDate,omitempty"`
	Status     RecordStatus `json:"status,omitempty"`
	SearchText string       `json:"searchText,omitempty"`
}

// TicketStatus values mirror the issue-tracking workflow states.
type TicketStatus string

const (
	TicketPendingFinance TicketStatus = "PENDING_FINANCE"
	TicketPendingGoods   TicketStatus = "PENDING_GOODS"
	TicketCompleted      TicketStatus = "COMPLETED"
)

// Ticket is a post-sale issue awaiting settlement.
type Ticket struct {
	OrderID      string       `json:"orderId"`
	Phone        string       `json:"phone,omitempty"`
	CustomerName string       `json:"customerName,omitempty"`
	Amount       string       `json:"amount,omitempty"`
	Status       TicketStatus `json:"status"`
	SettledAt    string       `json:"settledAt,omitempty"`
}

// PastedRow is one parsed line of pasted spreadsheet text. Lives only for the
// duration of a reconciliation pass.
type PastedRow struct {
	RawID        string `json:"rawId"`
	Phone        string `json:"phone"`
	Money        string `json:"money"`
	OriginalLine string `json:"originalLine"`
}

// Classification buckets for a reconciled row.
type Classification string

const (
	MatchValid     Classification = "VALID"
	MatchError     Classification = "ERROR"
	MatchDuplicate Classification = "DUPLICATE"
	MatchGhost     Classification = "GHOST"
	MatchUnknown   Classification = "UNKNOWN"
)

// ReconcileMatch pairs a pasted row with the ticket it resolved to, if any.
type ReconcileMatch struct {
	Row            PastedRow      `json:"row"`
	Ticket         *Ticket        `json:"ticket,omitempty"`
	Classification Classification `json:"classification"`
	Message        string         `json:"message"`
}

// SettleOutcome reports one per-ticket settle attempt. A batch settle never
// stops at the first failure; callers get one outcome per ticket.
type SettleOutcome struct {
	OrderID string `json:"orderId"`
	Settled bool   `json:"settled"`
	Error   string `json:"error,omitempty"`
}

// DaySummary aggregates transfer totals for one UTC+7 calendar day.
type DaySummary struct {
	Date           string  `json:"date"`
	Total          float64 `json:"total"`
	CompletedTotal float64 `json:"completedTotal"`
	Count          int     `json:"count"`
	CompletedCount int     `json:"completedCount"`
}
