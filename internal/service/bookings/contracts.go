package bookings

import (
	"context"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByTgUserID(ctx context.Context, tgUserID int64) (*domain.Client, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
