package domain

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentMethod способ оплаты бронирования
type PaymentMethod string

const (
	// PaymentWallet списание с внутреннего кошелька
	PaymentWallet PaymentMethod = "wallet"
	// PaymentSubscription списание занятия с абонемента
	PaymentSubscription PaymentMethod = "subscription"
)

// Booking represents a training booking in the system
// Бронь никогда не удаляется после подтверждения - отмена это смена статуса
// и компенсирующие записи. Единственное исключение - legacy-представление
// индивидуальных тренировок на тренажёре (см. cancel_booking)
type Booking struct {
	ID            int64
	ClientID      int64
	ResourceClass ResourceClass
	ResourceID    int64
	Date          time.Time
	StartTime     types.TimeString
	DurationMinutes int
	Sport         *Sport
	Price         float64
	PaymentMethod PaymentMethod
	Status        BookingStatus

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Participants заполняется репозиторием вместе с бронью
	Participants []BookingParticipant
}

// BookingParticipant участник бронирования
// Снимок имени/возраста на момент брони - связанные записи могут меняться
type BookingParticipant struct {
	ID          int64
	BookingID   int64
	DependentID *int64
	Name        string
	Age         int
}

// IsActive returns true if the booking occupies capacity
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}

// CanBeCancelled returns true if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.IsActive()
}

// SeatCount возвращает количество мест, которые бронь занимает в ресурсе
func (b *Booking) SeatCount() int {
	if n := len(b.Participants); n > 0 {
		return n
	}
	return 1
}

// BookingsFilter фильтр для выборки бронирований ресурса
type BookingsFilter struct {
	ResourceClass   *ResourceClass
	ResourceID      *int64
	ClientID        *int64
	Date            *time.Time
	IncludeInactive bool // включать ли отменённые брони
}
