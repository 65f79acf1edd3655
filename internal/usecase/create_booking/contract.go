package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/pricingservice"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetDependent(ctx context.Context, id int64) (*domain.Dependent, error)
}

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetSimulatorRange(ctx context.Context, lane int, date time.Time, startTimes []types.TimeString) ([]*domain.SimulatorSlot, error)
	MarkSimulatorSlots(ctx context.Context, ids []int64, booked bool) error
	GetInstructorSlot(ctx context.Context, id int64) (*domain.InstructorSlot, error)
	UpdateInstructorSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) error
	GetMaxScheduleDate(ctx context.Context) (time.Time, error)
}

// GroupSessionRepository интерфейс репозитория групповых тренировок
type GroupSessionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.GroupSession, error)
	Create(ctx context.Context, session *domain.GroupSession) (*domain.GroupSession, error)
	UpdateCurrentParticipants(ctx context.Context, id int64, count int) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error)
}

// WalletService интерфейс сервиса кошелька и абонементов
type WalletService interface {
	Debit(ctx context.Context, clientID int64, amount float64, description string) (*domain.LedgerEntry, error)
	GetActiveSubscription(ctx context.Context, clientID int64) (*domain.Subscription, error)
	ConsumeSession(ctx context.Context, subscriptionID, bookingID int64, now time.Time) (*domain.SubscriptionUsage, error)
}

// PricingServiceClient интерфейс клиента для PricingService
type PricingServiceClient interface {
	GetQuoteWithGracefulDegradation(ctx context.Context, req *pricingservice.QuoteRequest) (*pricingservice.Quote, error)
}

// NotifyServiceClient интерфейс клиента для NotifyService
type NotifyServiceClient interface {
	SendAsync(notification *notifyservice.Notification)
}

// SubscriptionPolicy применимость оплаты абонементом к классу ресурса
type SubscriptionPolicy interface {
	SubscriptionAllowedFor(class domain.ResourceClass) bool
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
