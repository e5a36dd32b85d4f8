package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

// YooKassaClient talks to the YooKassa REST API v3.
type YooKassaClient struct {
	httpClient *http.Client
	baseURL    string
	shopID     string
	secretKey  string
	log        *logrus.Entry
}

// NewYooKassaClient builds a client authenticated with shop credentials.
func NewYooKassaClient(shopID, secretKey string, log *logrus.Entry) *YooKassaClient {
	return &YooKassaClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		shopID:     shopID,
		secretKey:  secretKey,
		log:        log,
	}
}

type yooAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type yooConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type yooCreateRequest struct {
	Amount       yooAmount         `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation yooConfirmation   `json:"confirmation"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type yooPayment struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Confirmation *yooConfirmation `json:"confirmation,omitempty"`
}

type yooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (c *YooKassaClient) CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error) {
	body := yooCreateRequest{
		Amount: yooAmount{
			Value:    FormatAmount(req.Amount),
			Currency: req.Amount.Currency().Code,
		},
		Capture: true,
		Confirmation: yooConfirmation{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Description: req.Description,
		Metadata:    req.Metadata,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal create payment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build create payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// YooKassa requires a unique idempotence key per create attempt.
	httpReq.Header.Set("Idempotence-Key", uuid.NewString())
	httpReq.SetBasicAuth(c.shopID, c.secretKey)

	var created yooPayment
	if err := c.do(httpReq, &created); err != nil {
		return nil, err
	}
	if created.Confirmation == nil || created.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("create payment: response carries no confirmation url: %w", ErrGateway)
	}

	c.log.WithFields(logrus.Fields{
		"gateway_payment_id": created.ID,
		"amount":             body.Amount.Value,
	}).Info("payment created")

	return &Payment{ID: created.ID, ConfirmationURL: created.Confirmation.ConfirmationURL}, nil
}

func (c *YooKassaClient) Status(ctx context.Context, gatewayPaymentID string) (Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+gatewayPaymentID, nil)
	if err != nil {
		return StatusUnknown, fmt.Errorf("build status request: %w", err)
	}
	httpReq.SetBasicAuth(c.shopID, c.secretKey)

	var p yooPayment
	if err := c.do(httpReq, &p); err != nil {
		return StatusUnknown, err
	}
	return mapStatus(p.Status), nil
}

func (c *YooKassaClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr yooError
		detail := resp.Status
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Description != "" {
			detail = fmt.Sprintf("%s: %s", gwErr.Code, gwErr.Description)
		}
		return fmt.Errorf("%s: %w", detail, ErrGateway)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func mapStatus(raw string) Status {
	switch Status(raw) {
	case StatusPending, StatusWaitingCapture, StatusSucceeded, StatusCanceled:
		return Status(raw)
	default:
		return StatusUnknown
	}
}
