package wallet

import "errors"

var (
	// ErrWalletNotFound возвращается, когда кошелёк не найден
	ErrWalletNotFound = errors.New("wallet: wallet not found")

	// ErrInsufficientFunds возвращается, когда на кошельке недостаточно средств
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrInvalidAmount возвращается при неположительной сумме операции
	ErrInvalidAmount = errors.New("wallet: amount must be positive")

	// ErrSubscriptionNotFound возвращается, когда абонемент не найден
	ErrSubscriptionNotFound = errors.New("wallet: subscription not found")

	// ErrSubscriptionExhausted возвращается, когда на абонементе
	// не осталось занятий
	ErrSubscriptionExhausted = errors.New("wallet: subscription has no remaining sessions")

	// ErrSubscriptionExpired возвращается, когда срок действия
	// абонемента истёк
	ErrSubscriptionExpired = errors.New("wallet: subscription has expired")

	// ErrUsageNotFound возвращается, когда списание занятия не найдено
	ErrUsageNotFound = errors.New("wallet: subscription usage not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("wallet: internal error")
)
