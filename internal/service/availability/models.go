package availability

import (
	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// SimulatorStart вариант начала тренировки на тренажёре
// Время начала уникально в выдаче: при нескольких свободных дорожках
// на одно время возвращается одна из них
type SimulatorStart struct {
	Lane            int
	StartTime       types.TimeString
	DurationMinutes int
}

// GroupOption групповая тренировка с живым количеством свободных мест
// FreeSeats считается по активным бронированиям, а не по счётчику-кэшу
type GroupOption struct {
	Session   *domain.GroupSession
	FreeSeats int
}

// DatesFilter фильтры выборки открытых дат
type DatesFilter struct {
	Sport        *domain.Sport
	Audience     *domain.Audience
	InstructorID *int64
}
