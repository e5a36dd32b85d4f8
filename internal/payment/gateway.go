// Package payment integrates the bot with a hosted payment provider.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
)

// Status is the provider-side state of a payment.
type Status string

const (
	StatusPending        Status = "pending"
	StatusWaitingCapture Status = "waiting_for_capture"
	StatusSucceeded      Status = "succeeded"
	StatusCanceled       Status = "canceled"
	StatusUnknown        Status = "unknown"
)

// ErrGateway marks provider-side rejections (malformed amount, declined
// request). Wrapped errors carry the provider response detail.
var ErrGateway = errors.New("payment gateway error")

// Payment is a created payment intent and its hosted checkout page.
type Payment struct {
	ID              string
	ConfirmationURL string
}

// CreateRequest carries everything the provider needs to issue a checkout.
type CreateRequest struct {
	Amount      *money.Money
	Description string
	ReturnURL   string
	Metadata    map[string]string
}

// Gateway creates payment intents and polls their status.
//
// Status is always a fresh round trip: there is no webhook path, so the flow
// learns about confirmation only when it explicitly polls. Confirmation
// latency is therefore bounded by user interaction, not wall-clock time.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error)
	Status(ctx context.Context, gatewayPaymentID string) (Status, error)
}

// FormatAmount renders a money value the way the provider expects: exactly
// two decimal digits, no currency symbol.
func FormatAmount(m *money.Money) string {
	units := m.Amount()
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}
