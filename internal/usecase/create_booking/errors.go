package create_booking

import "errors"

var (
	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("create_booking: client not found")

	// ErrDependentNotFound возвращается, когда иждивенец не найден
	// или принадлежит другому клиенту
	ErrDependentNotFound = errors.New("create_booking: dependent not found")

	// ErrResourceNotFound возвращается, когда бронируемый ресурс не найден
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrSlotNotAvailable возвращается, когда слот тренажёра или инструктора
	// уже занят
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrCapacityExceeded возвращается, когда в группе не хватает
	// свободных мест на всех участников
	ErrCapacityExceeded = errors.New("create_booking: not enough free seats")

	// ErrDateInPast возвращается, когда дата тренировки уже прошла
	ErrDateInPast = errors.New("create_booking: date is in the past")

	// ErrDateBeyondHorizon возвращается, когда дата выходит за горизонт
	// опубликованного расписания
	ErrDateBeyondHorizon = errors.New("create_booking: date is beyond the schedule horizon")

	// ErrSkillTooLow возвращается, когда уровень подготовки участника
	// ниже требуемого для тренировки
	ErrSkillTooLow = errors.New("create_booking: participant skill level is too low")

	// ErrAgeNotEligible возвращается, когда возраст участника не попадает
	// в возрастную аудиторию группы
	ErrAgeNotEligible = errors.New("create_booking: participant age is outside the group audience")

	// ErrInsufficientFunds возвращается, когда на кошельке недостаточно средств
	ErrInsufficientFunds = errors.New("create_booking: insufficient wallet funds")

	// ErrNoSubscription возвращается, когда у клиента нет активного абонемента
	ErrNoSubscription = errors.New("create_booking: client has no active subscription")

	// ErrSubscriptionExhausted возвращается, когда на абонементе
	// не осталось занятий
	ErrSubscriptionExhausted = errors.New("create_booking: subscription has no remaining sessions")

	// ErrSubscriptionExpired возвращается, когда срок действия абонемента истёк
	ErrSubscriptionExpired = errors.New("create_booking: subscription has expired")

	// ErrSubscriptionNotAllowed возвращается, когда оплата абонементом
	// неприменима к выбранному ресурсу или составу участников
	ErrSubscriptionNotAllowed = errors.New("create_booking: subscription payment is not allowed for this booking")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
