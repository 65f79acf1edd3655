package get_availability

import (
	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
)

// DatesResponse список открытых дат
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// SimulatorStartResponse вариант начала тренировки на тренажёре
type SimulatorStartResponse struct {
	Lane            int    `json:"lane"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

// InstructorSlotResponse слот инструктора
type InstructorSlotResponse struct {
	ID              int64  `json:"id"`
	InstructorID    int64  `json:"instructorId"`
	InstructorName  string `json:"instructorName"`
	Sport           string `json:"sport"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

// GroupSessionResponse групповая тренировка со свободными местами
type GroupSessionResponse struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Sport           string  `json:"sport"`
	SkillLevel      int     `json:"skillLevel"`
	Audience        string  `json:"audience"`
	MaxParticipants int     `json:"maxParticipants"`
	FreeSeats       int     `json:"freeSeats"`
	Price           float64 `json:"price"`
}

func toInstructorSlotResponse(slot *domain.InstructorSlot) InstructorSlotResponse {
	return InstructorSlotResponse{
		ID:              slot.ID,
		InstructorID:    slot.InstructorID,
		InstructorName:  slot.InstructorName,
		Sport:           string(slot.Sport),
		Date:            slot.Date.Format(domain.DateFormat),
		StartTime:       slot.StartTime.String(),
		DurationMinutes: slot.DurationMinutes,
	}
}

func toGroupSessionResponse(opt availability.GroupOption) GroupSessionResponse {
	return GroupSessionResponse{
		ID:              opt.Session.ID,
		Date:            opt.Session.Date.Format(domain.DateFormat),
		StartTime:       opt.Session.StartTime.String(),
		DurationMinutes: opt.Session.DurationMinutes,
		Sport:           string(opt.Session.Sport),
		SkillLevel:      opt.Session.SkillLevel,
		Audience:        string(opt.Session.Audience),
		MaxParticipants: opt.Session.MaxParticipants,
		FreeSeats:       opt.FreeSeats,
		Price:           opt.Session.Price,
	}
}
