package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-bot/internal/model"
	"ticket-bot/internal/store"
)

// SweepService expires stale pending registrations. A row stays
// PendingPayment forever if the user abandons the checkout or the bot
// restarts mid-flow, so a periodic sweep marks rows older than the TTL
// as Cancelled.
type SweepService struct {
	store store.Store
	ttl   time.Duration
	log   *logrus.Entry
	now   func() time.Time
}

func NewSweepService(st store.Store, ttl time.Duration, log *logrus.Entry) *SweepService {
	return &SweepService{store: st, ttl: ttl, log: log, now: time.Now}
}

// Run performs one sweep pass. Rows without a parseable timestamp are
// skipped rather than guessed at.
func (s *SweepService) Run(ctx context.Context) {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("sweep: list pending rows")
		return
	}
	if len(pending) == 0 {
		return
	}

	cutoff := s.now().Add(-s.ttl)
	expired := 0
	for _, row := range pending {
		if row.Registration.Timestamp.IsZero() {
			continue
		}
		if row.Registration.Timestamp.After(cutoff) {
			continue
		}
		if err := s.store.SetStatus(ctx, row.Ref, model.StatusCancelled); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"row":        row.Ref,
				"payment_id": row.Registration.PaymentID,
			}).Error("sweep: cancel expired row")
			continue
		}
		expired++
		s.log.WithFields(logrus.Fields{
			"row":        row.Ref,
			"user_id":    row.Registration.UserID,
			"payment_id": row.Registration.PaymentID,
			"age":        s.now().Sub(row.Registration.Timestamp).String(),
		}).Info("sweep: expired pending registration")
	}

	if expired > 0 {
		s.log.WithField("expired", expired).Info("sweep finished")
	}
}
