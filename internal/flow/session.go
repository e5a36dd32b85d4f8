package flow

import (
	"sync"

	"github.com/Rhymond/go-money"

	"ticket-bot/internal/store"
)

// Stage is a step of the registration conversation.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingTicketCount
	StageAwaitingName
	StageAwaitingPhone
	StageAwaitingPayment
)

// Session holds everything collected from one user during a single
// registration attempt. Sessions live in memory only: a restart loses
// in-flight attempts, and any pending row they already appended stays in
// the sheet until the reconciliation sweep expires it.
type Session struct {
	UserID   int64
	Username string
	Stage    Stage

	TicketCount int
	Name        string
	Phone       string

	PaymentID        string
	GatewayPaymentID string
	ConfirmationURL  string
	TotalAmount      *money.Money

	Row    store.RowRef
	HasRow bool
}

// sessions owns the per-user session map. The map itself is guarded; a
// returned *Session is mutated without the lock because updates for one
// user are processed strictly sequentially.
type sessions struct {
	mu     sync.Mutex
	byUser map[int64]*Session
}

func newSessions() *sessions {
	return &sessions{byUser: make(map[int64]*Session)}
}

// get returns the user's session, creating an idle one on first contact.
func (s *sessions) get(userID int64, username string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		sess = &Session{UserID: userID, Username: username, Stage: StageIdle}
		s.byUser[userID] = sess
	}
	if username != "" {
		sess.Username = username
	}
	return sess
}

func (s *sessions) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}
