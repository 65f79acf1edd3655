package domain

import "time"

// VenueLocation фиксированный часовой пояс площадки (UTC+5)
// "Сегодня" для проверки дат всегда вычисляется в этом поясе,
// независимо от локального времени сервера
var VenueLocation = time.FixedZone("UTC+5", 5*60*60)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Default configuration values
const (
	SimulatorSlotMinutes       = 30 // шаг сетки слотов тренажёра
	DefaultTrainingMinutes     = 60
	AdultMinAge                = 18 // нижняя граница взрослой группы
	DefaultScheduleHorizonDays = 30
)

// Fallback prices, применяются при недоступности PricingService
const (
	FallbackSimulatorPricePerSlot  = 1200.0 // за 30 минут дорожки
	FallbackInstructorPricePerHour = 2500.0
)

// Business validation constants
const (
	MinSkillLevel            = 1
	MaxSkillLevel            = 10
	MinParticipantAge        = 3
	MaxParticipantAge        = 100
	MaxGroupSize             = 12
	MaxParticipantNameLength = 100
)

// InactiveBookingStatuses статусы, не занимающие место в ресурсе
// Используются при переагрегации занятости
var InactiveBookingStatuses = []BookingStatus{
	BookingCancelled,
}

// ActiveBookingStatuses статусы, занимающие место в ресурсе
var ActiveBookingStatuses = []BookingStatus{
	BookingPending,
	BookingConfirmed,
}

// VenueToday возвращает начало текущего дня в часовом поясе площадки
func VenueToday(now time.Time) time.Time {
	local := now.In(VenueLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, VenueLocation)
}
