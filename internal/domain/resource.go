package domain

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// ResourceClass класс бронируемого ресурса
type ResourceClass string

const (
	// ClassSimulator слот горнолыжного тренажёра (дорожка + 30-минутная сетка)
	ClassSimulator ResourceClass = "simulator"
	// ClassInstructor слот инструктора на естественном склоне
	ClassInstructor ResourceClass = "instructor"
	// ClassGroup групповая тренировка (существующая или частная ad-hoc)
	ClassGroup ResourceClass = "group"
)

// Sport вид спорта
type Sport string

const (
	SportSki       Sport = "ski"
	SportSnowboard Sport = "snowboard"
)

// Audience возрастная аудитория групповой тренировки
type Audience string

const (
	AudienceAdults   Audience = "adults"   // 18+
	AudienceChildren Audience = "children" // до 18
)

// SlotStatus статус слота расписания
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// GroupStatus статус групповой тренировки
type GroupStatus string

const (
	GroupActive    GroupStatus = "active"
	GroupCancelled GroupStatus = "cancelled"
)

// ResourceRef ссылка на бронируемый ресурс
type ResourceRef struct {
	Class ResourceClass
	ID    int64
}

// SimulatorSlot 30-минутный слот дорожки тренажёра
// Булевая занятость: одна бронь занимает один или несколько последовательных слотов
type SimulatorSlot struct {
	ID        int64
	Lane      int
	Date      time.Time
	StartTime types.TimeString
	Booked    bool
}

// InstructorSlot слот инструктора на естественном склоне
type InstructorSlot struct {
	ID             int64
	InstructorID   int64
	InstructorName string
	Sport          Sport
	Date           time.Time
	StartTime      types.TimeString
	DurationMinutes int
	Status         SlotStatus
}

// IsAvailable returns true if the slot can still be booked
func (s *InstructorSlot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

// GroupSession групповая тренировка с ограничением по количеству мест
// CurrentParticipants - денормализованный счётчик-кэш; источником истины
// является количество активных бронирований (см. availability)
type GroupSession struct {
	ID                  int64
	Date                time.Time
	StartTime           types.TimeString
	DurationMinutes     int
	Sport               Sport
	SkillLevel          int
	Audience            Audience
	MaxParticipants     int
	CurrentParticipants int
	Private             bool
	Status              GroupStatus
	Price               float64 // цена за одного участника
	InstructorSlotID    *int64  // слот расписания, на котором создана частная группа
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsActive returns true if the session has not been cancelled
func (g *GroupSession) IsActive() bool {
	return g.Status == GroupActive
}

// IsChildrenGroup returns true if the session is for the children age band
func (g *GroupSession) IsChildrenGroup() bool {
	return g.Audience == AudienceChildren
}

// FreeSeats returns the number of free seats given the live count of
// active participants (never the cached counter)
func (g *GroupSession) FreeSeats(activeParticipants int) int {
	free := g.MaxParticipants - activeParticipants
	if free < 0 {
		return 0
	}
	return free
}

// AcceptsAge returns true if the given age falls into the session's audience band
func (g *GroupSession) AcceptsAge(age int) bool {
	if g.Audience == AudienceChildren {
		return age < AdultMinAge
	}
	return age >= AdultMinAge
}
