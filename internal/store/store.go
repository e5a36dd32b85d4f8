// Package store persists registration rows in an externally-owned
// spreadsheet acting as the system of record.
package store

import (
	"context"
	"errors"

	"ticket-bot/internal/model"
)

// RowRef points at a single registration row in the backing sheet
// (1-based sheet row number).
type RowRef int

// ErrUnavailable means no durable backend is reachable; the operation may
// succeed when retried later.
var ErrUnavailable = errors.New("store backend unavailable")

// ErrNotFound means no row matched the lookup key.
var ErrNotFound = errors.New("record not found")

// PendingRow pairs an unpaid registration with its location, for the
// reconciliation sweep.
type PendingRow struct {
	Ref          RowRef
	Registration model.Registration
}

// Store is the registration system of record.
//
// Every lookup is a linear scan: the sheet carries no index, and the expected
// volume (one event's worth of registrations) keeps O(n) per call acceptable.
// This is a documented scalability ceiling, not an accident to optimize away.
type Store interface {
	// IsUserPaid reports whether any row for the user has status Paid.
	IsUserPaid(ctx context.Context, userID int64) (bool, error)

	// AppendPending inserts a new row with status PendingPayment. The
	// payment ID is supplied by the caller, never generated here.
	AppendPending(ctx context.Context, rec *model.Registration) (RowRef, error)

	// FindByPaymentID locates the row holding the given payment ID. The
	// caller guarantees payment IDs are unique, so first match is only match.
	FindByPaymentID(ctx context.Context, paymentID string) (RowRef, *model.Registration, error)

	// SetStatus updates the status column of one row in place. Setting the
	// same status twice is a no-op observable as success.
	SetStatus(ctx context.Context, ref RowRef, status model.Status) error

	// ListPending returns every row still in PendingPayment.
	ListPending(ctx context.Context) ([]PendingRow, error)
}
