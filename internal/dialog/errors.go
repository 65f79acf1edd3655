package dialog

import "errors"

var (
	// ErrSessionNotFound возвращается хранилищем, когда сессии нет
	// или ее срок жизни истек. Контроллер начинает новую сессию
	ErrSessionNotFound = errors.New("dialog: session not found")

	// ErrClientNotRegistered возвращается, когда пользователь
	// не зарегистрирован как клиент площадки
	ErrClientNotRegistered = errors.New("dialog: client is not registered")

	// ErrSessionCorrupted возвращается, когда сессия не содержит поля,
	// необходимого текущему шагу. Контроллер сбрасывает такую сессию
	// в главное меню
	ErrSessionCorrupted = errors.New("dialog: session data is corrupted")

	// ErrInternal возвращается при внутренних ошибках контроллера
	ErrInternal = errors.New("dialog: internal error")
)
