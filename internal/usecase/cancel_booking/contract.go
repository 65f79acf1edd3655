package cancel_booking

import (
	"context"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetSimulatorRange(ctx context.Context, lane int, date time.Time, startTimes []types.TimeString) ([]*domain.SimulatorSlot, error)
	MarkSimulatorSlots(ctx context.Context, ids []int64, booked bool) error
	UpdateInstructorSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) error
}

// GroupSessionRepository интерфейс репозитория групповых тренировок
type GroupSessionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.GroupSession, error)
	UpdateStatus(ctx context.Context, id int64, status domain.GroupStatus) error
	UpdateCurrentParticipants(ctx context.Context, id int64, count int) error
}

// WalletService интерфейс сервиса кошелька и абонементов
type WalletService interface {
	Credit(ctx context.Context, clientID int64, amount float64, description string) (*domain.LedgerEntry, error)
	ReturnSessionByBooking(ctx context.Context, bookingID int64, now time.Time) (*domain.Subscription, error)
}

// NotifyServiceClient интерфейс клиента для NotifyService
type NotifyServiceClient interface {
	SendAsync(notification *notifyservice.Notification)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
