package availability

import (
	"context"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	ListFreeSimulatorDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
	ListSimulatorSlots(ctx context.Context, date time.Time) ([]*domain.SimulatorSlot, error)
	ListAvailableInstructorDates(ctx context.Context, from time.Time, sport *domain.Sport, instructorID *int64) ([]time.Time, error)
	ListAvailableInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error)
	GetMaxScheduleDate(ctx context.Context) (time.Time, error)
}

// GroupSessionRepository интерфейс репозитория групповых тренировок
type GroupSessionRepository interface {
	ListActiveDates(ctx context.Context, from time.Time, sport *domain.Sport, audience *domain.Audience) ([]time.Time, error)
	ListActiveByDate(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]*domain.GroupSession, error)
}

// BookingRepository интерфейс репозитория бронирований
// Нужен для живого пересчёта занятости групп по активным броням
type BookingRepository interface {
	CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
