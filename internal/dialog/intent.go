package dialog

import "strings"

// IntentKind закрытый набор команд, распознаваемых на границе транспорта
// Машина состояний переключается по enum, а не по текстам кнопок
type IntentKind int

const (
	// IntentText свободный ввод, интерпретируется текущим шагом
	IntentText IntentKind = iota
	// IntentStart команда /start, всегда сбрасывает диалог в главное меню
	IntentStart
	// IntentMainMenu возврат в главное меню
	IntentMainMenu
	// IntentBook начало флоу бронирования
	IntentBook
	// IntentMyBookings просмотр своих бронирований
	IntentMyBookings
	// IntentCancelBooking начало флоу отмены
	IntentCancelBooking
	// IntentBalance баланс кошелька и выписка
	IntentBalance
)

// Intent распознанная команда с исходным текстом
type Intent struct {
	Kind IntentKind
	Text string
}

// ParseIntent декодирует входящее сообщение в команду
// Глобальные команды распознаются из любого шага диалога
func ParseIntent(text string) Intent {
	trimmed := strings.TrimSpace(text)

	switch strings.ToLower(trimmed) {
	case "/start":
		return Intent{Kind: IntentStart, Text: trimmed}
	case "/menu", "меню", "главное меню":
		return Intent{Kind: IntentMainMenu, Text: trimmed}
	case "/book", "забронировать":
		return Intent{Kind: IntentBook, Text: trimmed}
	case "/mybookings", "мои бронирования":
		return Intent{Kind: IntentMyBookings, Text: trimmed}
	case "/cancel", "отменить бронирование":
		return Intent{Kind: IntentCancelBooking, Text: trimmed}
	case "/balance", "баланс":
		return Intent{Kind: IntentBalance, Text: trimmed}
	default:
		return Intent{Kind: IntentText, Text: trimmed}
	}
}
