package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rhymond/go-money"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *YooKassaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := NewYooKassaClient("shop-1", "secret-1", logrus.NewEntry(logger))
	c.baseURL = srv.URL
	return c
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "3333.00", FormatAmount(money.New(333300, money.RUB)))
	assert.Equal(t, "0.05", FormatAmount(money.New(5, money.RUB)))
	assert.Equal(t, "1111.50", FormatAmount(money.New(111150, money.RUB)))
	assert.Equal(t, "-10.00", FormatAmount(money.New(-1000, money.RUB)))
}

func TestCreatePayment(t *testing.T) {
	var got yooCreateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "shop-1", user)
		assert.Equal(t, "secret-1", pass)
		assert.NotEmpty(t, r.Header.Get("Idempotence-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "2d1b74a2-000f-5000-8000-000000000000",
			"status": "pending",
			"confirmation": {"type": "redirect", "confirmation_url": "https://yoomoney.ru/checkout/payments/v2?orderId=abc"}
		}`))
	})

	p, err := client.CreatePayment(context.Background(), CreateRequest{
		Amount:      money.New(333300, money.RUB),
		Description: "3 билета",
		ReturnURL:   "https://t.me/ticketbot",
		Metadata:    map[string]string{"payment_id": "local-1", "user_id": "42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "2d1b74a2-000f-5000-8000-000000000000", p.ID)
	assert.Equal(t, "https://yoomoney.ru/checkout/payments/v2?orderId=abc", p.ConfirmationURL)

	assert.Equal(t, "3333.00", got.Amount.Value)
	assert.Equal(t, "RUB", got.Amount.Currency)
	assert.True(t, got.Capture)
	assert.Equal(t, "redirect", got.Confirmation.Type)
	assert.Equal(t, "https://t.me/ticketbot", got.Confirmation.ReturnURL)
	assert.Equal(t, "local-1", got.Metadata["payment_id"])
}

func TestCreatePaymentRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": "invalid_request", "description": "Invalid parameter value: amount"}`))
	})

	_, err := client.CreatePayment(context.Background(), CreateRequest{
		Amount: money.New(0, money.RUB),
	})
	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "invalid_request")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"waiting_for_capture", StatusWaitingCapture},
		{"succeeded", StatusSucceeded},
		{"canceled", StatusCanceled},
		{"something_new", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/payments/pay-1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id": "pay-1", "status": "` + tt.raw + `"}`))
			})

			st, err := client.Status(context.Background(), "pay-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
		})
	}
}

func TestStatusGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": "not_found", "description": "Payment not found"}`))
	})

	st, err := client.Status(context.Background(), "missing")
	require.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, StatusUnknown, st)
}
