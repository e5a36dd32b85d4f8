package model

import "time"

// Status is the payment status column of a registration row.
type Status string

const (
	StatusPendingPayment Status = "PendingPayment"
	StatusPaid           Status = "Paid"
	StatusCancelled      Status = "Cancelled"
)

// Header is the canonical column order of the registration sheet.
// The sheet is owned externally; on a mismatch the store logs a warning
// and proceeds, it never migrates columns on its own.
var Header = []string{
	"User ID",
	"Username",
	"Name",
	"Phone",
	"Ticket Count",
	"Amount",
	"Timestamp",
	"Status",
	"Payment ID",
}

// Registration is one durable row in the sheet: a single purchase attempt.
// Rows are append-only; only the status column is ever updated in place.
type Registration struct {
	UserID      int64
	Username    string
	Name        string
	Phone       string
	TicketCount int
	Amount      string // display string as stored, e.g. "3333 руб."
	Timestamp   time.Time
	Status      Status
	PaymentID   string
}
