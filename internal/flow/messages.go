package flow

import (
	"fmt"
	"html"
	"time"
)

const (
	msgAlreadyRegistered = "✅ Вы уже зарегистрированы на мероприятии!"

	msgTicketCountPrompt = "🎟️ <b>Сколько билетов вы хотите приобрести?</b>\n\nВведите число от 1 до 10:"
	msgTicketCountRange  = "⚠️ Пожалуйста, введите число от 1 до 10."
	msgTicketCountNaN    = "⚠️ Пожалуйста, введите корректное число."

	msgNamePrompt   = "👤 <b>Введите ваше имя:</b>"
	msgNameTooShort = "⚠️ Имя должно содержать минимум 2 символа."

	msgPhonePrompt  = "📱 <b>Введите ваш номер телефона:</b>\nПример: +79001234567"
	msgPhoneInvalid = "⚠️ Пожалуйста, введите корректный номер телефона.\nПример: +79001234567 или 89001234567"

	msgStillPending     = "⏳ Оплата ещё не поступила. Завершите оплату по ссылке и нажмите «Проверить оплату» ещё раз."
	msgPaymentCancelled = "❌ Оплата отменена.\n\nВведите /start для новой регистрации"
	msgFlowCancelled    = "❌ Регистрация отменена.\n\nВведите /start для новой регистрации"

	msgIdleHint = "Я не понял сообщение. Нажмите /start, чтобы начать регистрацию."

	msgStoreRetry     = "⚠️ Не получилось обратиться к базе регистраций. Попробуйте ещё раз чуть позже."
	msgCreateFailed   = "⚠️ Не удалось создать платёж. Нажмите «Оплатить» ещё раз."
	msgCheckFailed    = "⚠️ Не удалось проверить оплату. Попробуйте ещё раз."
	msgWrongPayment   = "⚠️ Эта кнопка относится к другому заказу. Начните заново: /start"
	msgPaymentMissing = "⚠️ Платёж ещё не создан. Нажмите «Оплатить»."

	btnRegister = "🎟️ Зарегистрироваться"
	btnPay      = "💳 Оплатить"
	btnCheckout = "💳 Перейти к оплате"
	btnCheck    = "🔄 Проверить оплату"
	btnCancel   = "❌ Отменить"
)

func welcomeText(price int) string {
	return fmt.Sprintf(
		"🎲 <b>Дорогой друг!</b>\n\n"+
			"🔮 Приглашаем тебя на Трансформационную игру\n"+
			"✨ <b>«Выход из Матрицы»</b> ✨\n\n"+
			"📅 <b>Дата проведения:</b> 25 сентября\n"+
			"🎟️ <b>Стоимость билета:</b> <code>%d руб.</code>\n\n"+
			"Нажми кнопку ниже или сразу отправь количество билетов (от 1 до 10).",
		price,
	)
}

func orderText(sess *Session, totalRub int) string {
	return fmt.Sprintf(
		"📄 <b>Подтверждение заказа:</b>\n\n"+
			"👤 Имя: <code>%s</code>\n"+
			"📱 Телефон: <code>%s</code>\n"+
			"🎟️ Количество билетов: <b>%d</b>\n"+
			"💰 Сумма к оплате: <b>%d руб.</b>\n\n"+
			"Для оплаты нажмите кнопку ниже:",
		html.EscapeString(sess.Name), html.EscapeString(sess.Phone), sess.TicketCount, totalRub,
	)
}

func checkoutText(sess *Session, totalRub int) string {
	return fmt.Sprintf(
		"💳 <b>Оплата через ЮKassa</b>\n\n"+
			"🛒 Сумма к оплате: <b>%d руб.</b>\n"+
			"🆔 Номер заказа: <code>%s</code>\n\n"+
			"Перейдите по ссылке ниже, завершите оплату и нажмите «Проверить оплату»:",
		totalRub, sess.PaymentID,
	)
}

func successText(sess *Session, totalRub int, now time.Time) string {
	return fmt.Sprintf(
		"🎉 <b>Поздравляем!</b>\n\n"+
			"✅ <b>Оплата успешно выполнена!</b>\n\n"+
			"🔮 Вы зарегистрированы на Трансформационную игру\n"+
			"✨ <b>«Выход из Матрицы»</b> ✨\n\n"+
			"📄 <b>Детали заказа:</b>\n"+
			"👤 Имя: <code>%s</code>\n"+
			"📱 Телефон: <code>%s</code>\n"+
			"🎟️ Количество билетов: <b>%d</b>\n"+
			"💰 Сумма: <b>%d руб.</b>\n"+
			"🆔 Номер платежа: <code>%s</code>\n"+
			"📅 Дата: <code>%s</code>\n\n"+
			"Спасибо за регистрацию! До встречи на игре! 🎊",
		html.EscapeString(sess.Name), html.EscapeString(sess.Phone),
		sess.TicketCount, totalRub, sess.PaymentID, now.Format("02.01.2006 15:04"),
	)
}
