package cancel_booking

import (
	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// Request модель запроса на отмену бронирования
type Request struct {
	ClientID  int64 // внутренний ID клиента
	BookingID int64
}

// Response модель ответа с результатом отмены
type Response struct {
	BookingID    int64
	RefundMethod domain.PaymentMethod // куда вернулась оплата
	RefundAmount float64              // сумма возврата на кошелёк (0 для абонемента)
}
