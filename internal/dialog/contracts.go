package dialog

import (
	"context"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
)

// SessionStore интерфейс хранилища диалоговых сессий
// Чистый key/value без бизнес-логики; схему контролирует контроллер
type SessionStore interface {
	Get(ctx context.Context, tgUserID int64) (*Session, error)
	Set(ctx context.Context, session *Session) error
	Delete(ctx context.Context, tgUserID int64) error
}

// AvailabilityService интерфейс резолвера доступности
type AvailabilityService interface {
	ListOpenDates(ctx context.Context, class domain.ResourceClass, now time.Time, filter availability.DatesFilter) ([]time.Time, error)
	ListSimulatorStartTimes(ctx context.Context, date time.Time, durationMinutes int) ([]availability.SimulatorStart, error)
	ListInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error)
	ListGroupSessions(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]availability.GroupOption, error)
}

// BookingsService интерфейс чтения клиентов и бронирований
type BookingsService interface {
	GetClientByTgUserID(ctx context.Context, tgUserID int64) (*domain.Client, error)
	ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error)
}

// ClientDirectory интерфейс чтения иждивенцев клиента
type ClientDirectory interface {
	ListDependents(ctx context.Context, clientID int64) ([]*domain.Dependent, error)
}

// WalletService интерфейс чтения кошелька
type WalletService interface {
	GetStatement(ctx context.Context, clientID int64, limit int) (*wallet.Statement, error)
}

// BookingCreator интерфейс транзактора создания бронирования
type BookingCreator interface {
	Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error)
}

// BookingCanceller интерфейс транзактора отмены бронирования
type BookingCanceller interface {
	Execute(ctx context.Context, req *cancel_booking.Request) (*cancel_booking.Response, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
