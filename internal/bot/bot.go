// Package bot is the Telegram transport: it polls updates, routes them to
// the conversation controller and renders its replies.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"ticket-bot/internal/flow"
)

const helpText = "ℹ️ <b>Подсказки</b>\n" +
	"• /start — начать регистрацию на игру\n" +
	"• /cancel — отменить текущую регистрацию\n" +
	"• /help — показать это сообщение\n\n" +
	"Оплата проходит через ЮKassa. После оплаты нажмите «Проверить оплату»."

const panicText = "⚠️ Что-то пошло не так. Попробуйте ещё раз: /start"

// Bot aggregates the Telegram API with the conversation controller.
type Bot struct {
	api  *tgbotapi.BotAPI
	flow *flow.Controller
	log  *logrus.Entry
}

func New(token string, fc *flow.Controller, log *logrus.Entry) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{api: api, flow: fc, log: log}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			b.handleCallback(ctx, update.CallbackQuery)
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user := flow.User{ID: msg.From.ID, Username: msg.From.UserName}
	defer b.recoverHandler(msg.Chat.ID, user, false)

	var reply flow.Reply
	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"command": msg.Command(),
		}).Info("command received")

		switch msg.Command() {
		case "start":
			reply = b.flow.Start(ctx, user)
		case "cancel":
			reply = b.flow.Cancel(ctx, user)
		case "help":
			reply = flow.Reply{Text: helpText}
		default:
			reply = flow.Reply{Text: "Команда не поддерживается. Загляните в /help."}
		}
	} else {
		reply = b.flow.Input(ctx, user, msg.Text)
	}

	b.send(msg.Chat.ID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	user := flow.User{ID: cb.From.ID, Username: cb.From.UserName}
	data := cb.Data

	// On the payment-terminal callbacks a mid-flight panic leaves the
	// session in an unknown state, so the recovery also resets it.
	terminal := strings.HasPrefix(data, flow.ActionCheckPrefix) || data == flow.ActionCancelPayment
	defer b.recoverHandler(cb.Message.Chat.ID, user, terminal)

	var reply flow.Reply
	switch {
	case data == flow.ActionRegister:
		reply = b.flow.BeginRegistration(ctx, user)
	case strings.HasPrefix(data, flow.ActionPayPrefix):
		reply = b.flow.Pay(ctx, user, strings.TrimPrefix(data, flow.ActionPayPrefix))
	case strings.HasPrefix(data, flow.ActionCheckPrefix):
		reply = b.flow.CheckPayment(ctx, user, strings.TrimPrefix(data, flow.ActionCheckPrefix))
	case data == flow.ActionCancelPayment:
		reply = b.flow.CancelPayment(ctx, user)
	default:
		b.ack(cb.ID, flow.Reply{})
		return
	}

	b.ack(cb.ID, reply)
	if !reply.Alert {
		b.send(cb.Message.Chat.ID, reply)
	}
}

// recoverHandler turns a handler panic into an apology instead of killing
// the polling loop.
func (b *Bot) recoverHandler(chatID int64, user flow.User, resetSession bool) {
	r := recover()
	if r == nil {
		return
	}
	b.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"panic":   fmt.Sprint(r),
	}).Error("handler panicked")
	if resetSession {
		b.flow.Reset(user.ID)
	}
	b.send(chatID, flow.Reply{Text: panicText})
}

func (b *Bot) send(chatID int64, reply flow.Reply) {
	if reply.Text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup, ok := inlineKeyboard(reply.Buttons); ok {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Error("send message")
	}
}

// ack answers the callback query. Alert replies are delivered inside the
// ack itself; b.send then skips them.
func (b *Bot) ack(callbackID string, reply flow.Reply) {
	var cb tgbotapi.CallbackConfig
	if reply.Alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, stripTags(reply.Text))
	} else {
		cb = tgbotapi.NewCallback(callbackID, "")
	}
	if _, err := b.api.Request(cb); err != nil {
		b.log.WithError(err).Error("callback ack")
	}
}

func inlineKeyboard(rows [][]flow.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
			}
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...), true
}

// stripTags removes the HTML markup; callback alerts are plain text.
func stripTags(s string) string {
	replacer := strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "", "<i>", "", "</i>", "")
	return replacer.Replace(s)
}
