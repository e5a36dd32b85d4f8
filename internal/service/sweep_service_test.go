package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-bot/internal/model"
	"ticket-bot/internal/store"
)

type sweepStore struct {
	pending []store.PendingRow
	listErr error

	cancelled []store.RowRef
	statusErr map[store.RowRef]error
}

func (s *sweepStore) IsUserPaid(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}

func (s *sweepStore) AppendPending(ctx context.Context, rec *model.Registration) (store.RowRef, error) {
	return 0, errors.New("not used")
}

func (s *sweepStore) FindByPaymentID(ctx context.Context, paymentID string) (store.RowRef, *model.Registration, error) {
	return 0, nil, store.ErrNotFound
}

func (s *sweepStore) SetStatus(ctx context.Context, ref store.RowRef, status model.Status) error {
	if err := s.statusErr[ref]; err != nil {
		return err
	}
	if status == model.StatusCancelled {
		s.cancelled = append(s.cancelled, ref)
	}
	return nil
}

func (s *sweepStore) ListPending(ctx context.Context) ([]store.PendingRow, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.pending, nil
}

func newSweep(st store.Store, ttl time.Duration, now time.Time) *SweepService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewSweepService(st, ttl, logrus.NewEntry(logger))
	svc.now = func() time.Time { return now }
	return svc
}

func pendingRow(ref store.RowRef, ts time.Time) store.PendingRow {
	return store.PendingRow{
		Ref: ref,
		Registration: model.Registration{
			UserID:    int64(ref),
			Status:    model.StatusPendingPayment,
			PaymentID: "p",
			Timestamp: ts,
		},
	}
}

func TestSweepExpiresOldRows(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	st := &sweepStore{
		pending: []store.PendingRow{
			pendingRow(2, now.Add(-25*time.Hour)),
			pendingRow(3, now.Add(-2*time.Hour)),
			pendingRow(4, now.Add(-24*time.Hour-time.Minute)),
		},
	}

	newSweep(st, 24*time.Hour, now).Run(context.Background())

	assert.Equal(t, []store.RowRef{2, 4}, st.cancelled)
}

func TestSweepSkipsRowsWithoutTimestamp(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	st := &sweepStore{
		pending: []store.PendingRow{pendingRow(2, time.Time{})},
	}

	newSweep(st, time.Hour, now).Run(context.Background())

	assert.Empty(t, st.cancelled)
}

func TestSweepContinuesPastStatusError(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	st := &sweepStore{
		pending: []store.PendingRow{
			pendingRow(2, now.Add(-48*time.Hour)),
			pendingRow(3, now.Add(-48*time.Hour)),
		},
		statusErr: map[store.RowRef]error{2: store.ErrUnavailable},
	}

	newSweep(st, 24*time.Hour, now).Run(context.Background())

	require.Equal(t, []store.RowRef{3}, st.cancelled)
}

func TestSweepListError(t *testing.T) {
	st := &sweepStore{listErr: store.ErrUnavailable}

	newSweep(st, time.Hour, time.Now()).Run(context.Background())

	assert.Empty(t, st.cancelled)
}
