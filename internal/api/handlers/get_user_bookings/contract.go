package get_user_bookings

import (
	"context"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

type BookingService interface {
	ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
