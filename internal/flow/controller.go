// Package flow drives the ticket registration conversation: a per-user
// state machine plus the controller sequencing store and gateway calls.
package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ticket-bot/internal/model"
	"ticket-bot/internal/payment"
	"ticket-bot/internal/phone"
	"ticket-bot/internal/store"
)

// Callback action tags carried in inline button payloads.
const (
	ActionRegister      = "register"
	ActionPayPrefix     = "pay_"
	ActionCheckPrefix   = "check_payment_"
	ActionCancelPayment = "cancel_payment"
)

const (
	minTickets = 1
	maxTickets = 10
	minNameLen = 2
)

// User identifies the Telegram account behind an inbound event.
type User struct {
	ID       int64
	Username string
}

// Button is one inline action: a callback when Data is set, a link when URL
// is set.
type Button struct {
	Label string
	Data  string
	URL   string
}

// Reply is what a transition tells the transport to show the user.
type Reply struct {
	Text    string
	Buttons [][]Button
	// Alert asks the transport to deliver the text as a non-blocking
	// callback alert instead of a message.
	Alert bool
}

// Controller owns the sessions and sequences store/gateway calls per the
// transition table. Every method handles one inbound event and returns the
// outbound reply; store and gateway failures downgrade to retry copy with
// the session left in its pre-call state.
type Controller struct {
	store     store.Store
	gateway   payment.Gateway
	price     int // rubles per ticket
	returnURL string
	log       *logrus.Entry
	sessions  *sessions
	now       func() time.Time
}

func NewController(st store.Store, gw payment.Gateway, price int, returnURL string, log *logrus.Entry) *Controller {
	return &Controller{
		store:     st,
		gateway:   gw,
		price:     price,
		returnURL: returnURL,
		log:       log,
		sessions:  newSessions(),
		now:       time.Now,
	}
}

// Start handles the start command: it restarts the registration attempt
// unless the user already holds a Paid row.
func (c *Controller) Start(ctx context.Context, user User) Reply {
	if reply, blocked := c.paidGuard(ctx, user); blocked {
		return reply
	}

	c.sessions.clear(user.ID)
	sess := c.sessions.get(user.ID, user.Username)
	sess.Stage = StageAwaitingTicketCount

	return Reply{
		Text:    welcomeText(c.price),
		Buttons: [][]Button{{{Label: btnRegister, Data: ActionRegister}}},
	}
}

// BeginRegistration handles the register button: same transition as Start
// but prompts for the ticket count directly.
func (c *Controller) BeginRegistration(ctx context.Context, user User) Reply {
	if reply, blocked := c.paidGuard(ctx, user); blocked {
		return reply
	}

	c.sessions.clear(user.ID)
	sess := c.sessions.get(user.ID, user.Username)
	sess.Stage = StageAwaitingTicketCount

	return Reply{Text: msgTicketCountPrompt}
}

// Input handles free-text messages and advances the data-collection stages.
func (c *Controller) Input(ctx context.Context, user User, text string) Reply {
	if reply, blocked := c.paidGuard(ctx, user); blocked {
		return reply
	}

	sess := c.sessions.get(user.ID, user.Username)
	text = strings.TrimSpace(text)

	switch sess.Stage {
	case StageAwaitingTicketCount:
		count, err := strconv.Atoi(text)
		if err != nil {
			return Reply{Text: msgTicketCountNaN}
		}
		if count < minTickets || count > maxTickets {
			return Reply{Text: msgTicketCountRange}
		}
		sess.TicketCount = count
		sess.Stage = StageAwaitingName
		return Reply{Text: msgNamePrompt}

	case StageAwaitingName:
		if utf8.RuneCountInString(text) < minNameLen {
			return Reply{Text: msgNameTooShort}
		}
		sess.Name = text
		sess.Stage = StageAwaitingPhone
		return Reply{Text: msgPhonePrompt}

	case StageAwaitingPhone:
		if !phone.Valid(text) {
			return Reply{Text: msgPhoneInvalid}
		}
		return c.appendPending(ctx, sess, phone.Normalize(text))

	case StageAwaitingPayment:
		return Reply{Text: checkoutHint(sess)}

	default:
		return Reply{Text: msgIdleHint}
	}
}

// appendPending finishes the data-collection half of the flow: it computes
// the amount, mints the payment ID and writes the pending row. Session
// fields are assigned only after the append succeeds, so a store failure
// leaves the user at the phone prompt with nothing half-recorded.
func (c *Controller) appendPending(ctx context.Context, sess *Session, normalizedPhone string) Reply {
	totalRub := sess.TicketCount * c.price
	paymentID := uuid.NewString()

	rec := model.Registration{
		UserID:      sess.UserID,
		Username:    sess.Username,
		Name:        sess.Name,
		Phone:       normalizedPhone,
		TicketCount: sess.TicketCount,
		Amount:      fmt.Sprintf("%d руб.", totalRub),
		Timestamp:   c.now(),
		Status:      model.StatusPendingPayment,
		PaymentID:   paymentID,
	}

	ref, err := c.store.AppendPending(ctx, &rec)
	if err != nil {
		c.logStoreError(sess.UserID, "append pending row", err)
		return Reply{Text: msgStoreRetry}
	}

	sess.Phone = normalizedPhone
	sess.PaymentID = paymentID
	sess.TotalAmount = money.New(int64(totalRub)*100, money.RUB)
	sess.Row = ref
	sess.HasRow = true
	sess.Stage = StageAwaitingPayment

	c.log.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"payment_id": paymentID,
		"tickets":    sess.TicketCount,
		"amount":     rec.Amount,
	}).Info("pending registration appended")

	return Reply{
		Text:    orderText(sess, totalRub),
		Buttons: [][]Button{{{Label: btnPay, Data: ActionPayPrefix + paymentID}}},
	}
}

// Pay handles the pay button: creates the gateway payment on first press and
// re-presents the checkout on subsequent presses.
func (c *Controller) Pay(ctx context.Context, user User, paymentID string) Reply {
	sess, reply, ok := c.sessionForPayment(user, paymentID)
	if !ok {
		return reply
	}

	if sess.GatewayPaymentID == "" {
		p, err := c.gateway.CreatePayment(ctx, payment.CreateRequest{
			Amount:      sess.TotalAmount,
			Description: fmt.Sprintf("Билеты на «Выход из Матрицы» (%d шт.)", sess.TicketCount),
			ReturnURL:   c.returnURL,
			Metadata: map[string]string{
				"payment_id":   sess.PaymentID,
				"user_id":      strconv.FormatInt(sess.UserID, 10),
				"name":         sess.Name,
				"phone":        sess.Phone,
				"ticket_count": strconv.Itoa(sess.TicketCount),
			},
		})
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"user_id":    sess.UserID,
				"payment_id": sess.PaymentID,
			}).Error("create payment failed")
			return Reply{Text: msgCreateFailed}
		}
		sess.GatewayPaymentID = p.ID
		sess.ConfirmationURL = p.ConfirmationURL
	}

	return c.checkoutReply(sess)
}

// CheckPayment handles the check-status button: a fresh poll of the gateway
// decides between Paid, Cancelled and "still pending".
func (c *Controller) CheckPayment(ctx context.Context, user User, paymentID string) Reply {
	sess, reply, ok := c.sessionForPayment(user, paymentID)
	if !ok {
		return reply
	}
	if sess.GatewayPaymentID == "" {
		return Reply{Text: msgPaymentMissing, Alert: true}
	}

	status, err := c.gateway.Status(ctx, sess.GatewayPaymentID)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"user_id":            sess.UserID,
			"payment_id":         sess.PaymentID,
			"gateway_payment_id": sess.GatewayPaymentID,
		}).Error("payment status check failed")
		return Reply{Text: msgCheckFailed, Alert: true}
	}

	switch status {
	case payment.StatusSucceeded:
		if err := c.store.SetStatus(ctx, sess.Row, model.StatusPaid); err != nil {
			c.logStoreError(sess.UserID, "mark row paid", err)
			return Reply{Text: msgStoreRetry}
		}
		totalRub := sess.TicketCount * c.price
		reply := Reply{Text: successText(sess, totalRub, c.now())}
		c.log.WithFields(logrus.Fields{
			"user_id":    sess.UserID,
			"payment_id": sess.PaymentID,
		}).Info("registration paid")
		c.sessions.clear(user.ID)
		return reply

	case payment.StatusCanceled:
		if err := c.store.SetStatus(ctx, sess.Row, model.StatusCancelled); err != nil {
			c.logStoreError(sess.UserID, "mark row cancelled", err)
			return Reply{Text: msgStoreRetry}
		}
		c.sessions.clear(user.ID)
		return Reply{Text: msgPaymentCancelled}

	default:
		return Reply{Text: msgStillPending, Alert: true}
	}
}

// CancelPayment handles the cancel button inside the checkout: the pending
// row (if one was appended) is marked Cancelled and the session dropped.
func (c *Controller) CancelPayment(ctx context.Context, user User) Reply {
	sess := c.sessions.get(user.ID, user.Username)
	if sess.HasRow {
		if err := c.store.SetStatus(ctx, sess.Row, model.StatusCancelled); err != nil {
			c.logStoreError(sess.UserID, "mark row cancelled", err)
			return Reply{Text: msgStoreRetry}
		}
	}
	c.sessions.clear(user.ID)
	return Reply{Text: msgPaymentCancelled}
}

// Cancel handles the cancel command: the session is dropped without touching
// the sheet, so an already-appended pending row stays for the sweep.
func (c *Controller) Cancel(ctx context.Context, user User) Reply {
	c.sessions.clear(user.ID)
	return Reply{Text: msgFlowCancelled}
}

// Reset drops the session without producing a reply. The transport uses it
// when a terminal-path handler dies mid-flight.
func (c *Controller) Reset(userID int64) {
	c.sessions.clear(userID)
}

// paidGuard short-circuits users who already hold a Paid row. The check is
// skipped while the user is mid-retry in the ticket-count stage, so a stale
// scan cannot trap them there.
func (c *Controller) paidGuard(ctx context.Context, user User) (Reply, bool) {
	sess := c.sessions.get(user.ID, user.Username)
	if sess.Stage == StageAwaitingTicketCount {
		return Reply{}, false
	}

	paid, err := c.store.IsUserPaid(ctx, user.ID)
	if err != nil {
		c.logStoreError(user.ID, "check paid registration", err)
		return Reply{Text: msgStoreRetry}, true
	}
	if paid {
		return Reply{Text: msgAlreadyRegistered}, true
	}
	return Reply{}, false
}

// sessionForPayment resolves the session for a payment-scoped callback and
// rejects actions whose payment ID does not match the live session.
func (c *Controller) sessionForPayment(user User, paymentID string) (*Session, Reply, bool) {
	sess := c.sessions.get(user.ID, user.Username)
	if sess.Stage != StageAwaitingPayment || sess.PaymentID != paymentID {
		c.log.WithFields(logrus.Fields{
			"user_id":             user.ID,
			"callback_payment_id": paymentID,
			"session_payment_id":  sess.PaymentID,
		}).Warn("callback payment id does not match session")
		return nil, Reply{Text: msgWrongPayment, Alert: true}, false
	}
	return sess, Reply{}, true
}

func (c *Controller) checkoutReply(sess *Session) Reply {
	totalRub := sess.TicketCount * c.price
	return Reply{
		Text: checkoutText(sess, totalRub),
		Buttons: [][]Button{
			{{Label: btnCheckout, URL: sess.ConfirmationURL}},
			{{Label: btnCheck, Data: ActionCheckPrefix + sess.PaymentID}},
			{{Label: btnCancel, Data: ActionCancelPayment}},
		},
	}
}

func (c *Controller) logStoreError(userID int64, op string, err error) {
	c.log.WithError(err).WithField("user_id", userID).Errorf("store: %s", op)
}

func checkoutHint(sess *Session) string {
	return fmt.Sprintf("💳 Заказ <code>%s</code> ждёт оплаты. Используйте кнопки под сообщением с заказом.", sess.PaymentID)
}
