package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
)

type AvailabilityService interface {
	ListOpenDates(ctx context.Context, class domain.ResourceClass, now time.Time, filter availability.DatesFilter) ([]time.Time, error)
	ListSimulatorStartTimes(ctx context.Context, date time.Time, durationMinutes int) ([]availability.SimulatorStart, error)
	ListInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error)
	ListGroupSessions(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]availability.GroupOption, error)
}

type TimeProvider interface {
	Now() time.Time
}

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
