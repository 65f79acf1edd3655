package availability

import "errors"

var (
	// ErrInvalidDuration возвращается, когда длительность тренировки
	// не кратна шагу сетки слотов или неположительна
	ErrInvalidDuration = errors.New("availability: duration must be a positive multiple of the slot grid")

	// ErrUnknownResourceClass возвращается при неизвестном классе ресурса
	ErrUnknownResourceClass = errors.New("availability: unknown resource class")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability: internal error")
)
