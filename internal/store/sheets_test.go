package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-bot/internal/model"
)

func TestRowValuesRoundTrip(t *testing.T) {
	ts := time.Date(2025, 9, 20, 14, 5, 0, 0, time.Local)
	rec := model.Registration{
		UserID:      123456789,
		Username:    "neo",
		Name:        "Алиса",
		Phone:       "+79001234567",
		TicketCount: 3,
		Amount:      "3333 руб.",
		Timestamp:   ts,
		Status:      model.StatusPendingPayment,
		PaymentID:   "0f8fad5b-d9cb-469f-a165-70867728950e",
	}

	parsed := parseRow(rowValues(&rec))
	assert.Equal(t, rec, parsed)
}

func TestParseRowTolerant(t *testing.T) {
	// Short and hand-edited rows must not blow up the scan.
	parsed := parseRow([]interface{}{"not-a-number", "neo"})
	assert.Equal(t, int64(0), parsed.UserID)
	assert.Equal(t, "neo", parsed.Username)
	assert.True(t, parsed.Timestamp.IsZero())
	assert.Empty(t, parsed.PaymentID)
}

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		updatedRange string
		want         RowRef
		wantErr      bool
	}{
		{"Sheet1!A5:I5", 5, false},
		{"Лист1!A12:I12", 12, false},
		{"Sheet1!A2", 2, false},
		{"A5:I5", 0, true},
		{"Sheet1!AI", 0, true},
	}
	for _, tt := range tests {
		ref, err := rowFromRange(tt.updatedRange)
		if tt.wantErr {
			require.Error(t, err, tt.updatedRange)
			continue
		}
		require.NoError(t, err, tt.updatedRange)
		assert.Equal(t, tt.want, ref, tt.updatedRange)
	}
}

func TestHeaderMatches(t *testing.T) {
	assert.True(t, headerMatches(model.Header))
	assert.False(t, headerMatches([]string{"User ID", "Username"}))
	swapped := append([]string(nil), model.Header...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.False(t, headerMatches(swapped))
}
