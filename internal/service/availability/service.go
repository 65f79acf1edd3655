package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	scheduleRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/schedule"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// Service резолвер доступности: открытые даты и свободные варианты
// по каждому классу ресурса
//
// Пустая выдача - нормальный результат, не ошибка. Занятость групп
// всегда пересчитывается по активным бронированиям; расхождение
// со счётчиком-кэшем логируется
type Service struct {
	scheduleRepo     ScheduleRepository
	groupSessionRepo GroupSessionRepository
	bookingRepo      BookingRepository
	logger           Logger
	horizonDays      int
}

// NewService создает новый экземпляр резолвера доступности
func NewService(
	scheduleRepo ScheduleRepository,
	groupSessionRepo GroupSessionRepository,
	bookingRepo BookingRepository,
	logger Logger,
	horizonDays int,
) *Service {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultScheduleHorizonDays
	}
	return &Service{
		scheduleRepo:     scheduleRepo,
		groupSessionRepo: groupSessionRepo,
		bookingRepo:      bookingRepo,
		logger:           logger,
		horizonDays:      horizonDays,
	}
}

// Horizon возвращает верхнюю границу окна бронирования
// Берётся из настроек расписания; если они не заполнены,
// действует горизонт по умолчанию от текущего дня площадки
func (s *Service) Horizon(ctx context.Context, now time.Time) (time.Time, error) {
	maxDate, err := s.scheduleRepo.GetMaxScheduleDate(ctx)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrMaxDateNotConfigured) {
			return domain.VenueToday(now).AddDate(0, 0, s.horizonDays), nil
		}
		s.logger.Error("Horizon: failed to get max schedule date: %v", err)
		return time.Time{}, fmt.Errorf("%w: Horizon - repository error: %v", ErrInternal, err)
	}
	return maxDate, nil
}

// ListOpenDates возвращает даты, на которые есть хоть один свободный
// вариант для класса ресурса. Выдача отсортирована по возрастанию
func (s *Service) ListOpenDates(ctx context.Context, class domain.ResourceClass, now time.Time, filter DatesFilter) ([]time.Time, error) {
	today := domain.VenueToday(now)

	switch class {
	case domain.ClassSimulator:
		horizon, err := s.Horizon(ctx, now)
		if err != nil {
			return nil, err
		}
		dates, err := s.scheduleRepo.ListFreeSimulatorDates(ctx, today, horizon)
		if err != nil {
			s.logger.Error("ListOpenDates: failed to list simulator dates: %v", err)
			return nil, fmt.Errorf("%w: ListOpenDates - repository error: %v", ErrInternal, err)
		}
		return dates, nil

	case domain.ClassInstructor:
		dates, err := s.scheduleRepo.ListAvailableInstructorDates(ctx, today, filter.Sport, filter.InstructorID)
		if err != nil {
			s.logger.Error("ListOpenDates: failed to list instructor dates: %v", err)
			return nil, fmt.Errorf("%w: ListOpenDates - repository error: %v", ErrInternal, err)
		}
		return dates, nil

	case domain.ClassGroup:
		dates, err := s.groupSessionRepo.ListActiveDates(ctx, today, filter.Sport, filter.Audience)
		if err != nil {
			s.logger.Error("ListOpenDates: failed to list group dates: %v", err)
			return nil, fmt.Errorf("%w: ListOpenDates - repository error: %v", ErrInternal, err)
		}
		return s.filterGroupDatesWithSeats(ctx, dates, filter)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceClass, class)
	}
}

// ListSimulatorStartTimes возвращает варианты начала тренировки на тренажёре:
// времена, с которых на какой-то дорожке свободно durationMinutes подряд.
// Времена в выдаче уникальны и отсортированы; дорожка - первая подходящая
func (s *Service) ListSimulatorStartTimes(ctx context.Context, date time.Time, durationMinutes int) ([]SimulatorStart, error) {
	if durationMinutes <= 0 || durationMinutes%domain.SimulatorSlotMinutes != 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, durationMinutes)
	}
	need := durationMinutes / domain.SimulatorSlotMinutes

	slots, err := s.scheduleRepo.ListSimulatorSlots(ctx, date)
	if err != nil {
		s.logger.Error("ListSimulatorStartTimes: failed to list slots for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListSimulatorStartTimes - repository error: %v", ErrInternal, err)
	}

	byLane := make(map[int][]*domain.SimulatorSlot)
	lanes := make([]int, 0)
	for _, slot := range slots {
		if _, ok := byLane[slot.Lane]; !ok {
			lanes = append(lanes, slot.Lane)
		}
		byLane[slot.Lane] = append(byLane[slot.Lane], slot)
	}
	sort.Ints(lanes)

	seen := make(map[string]struct{})
	starts := make([]SimulatorStart, 0)

	for _, lane := range lanes {
		for _, start := range freeRunStarts(byLane[lane], need) {
			key := start.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			starts = append(starts, SimulatorStart{
				Lane:            lane,
				StartTime:       start,
				DurationMinutes: durationMinutes,
			})
		}
	}

	sort.Slice(starts, func(i, j int) bool {
		return starts[i].StartTime.IsBefore(starts[j].StartTime)
	})

	return starts, nil
}

// ListInstructorSlots возвращает свободные слоты инструкторов на дату
func (s *Service) ListInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error) {
	slots, err := s.scheduleRepo.ListAvailableInstructorSlots(ctx, date, sport, instructorID)
	if err != nil {
		s.logger.Error("ListInstructorSlots: failed to list slots for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListInstructorSlots - repository error: %v", ErrInternal, err)
	}
	return slots, nil
}

// ListGroupSessions возвращает активные публичные групповые тренировки
// на дату, в которых остались свободные места
func (s *Service) ListGroupSessions(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]GroupOption, error) {
	sessions, err := s.groupSessionRepo.ListActiveByDate(ctx, date, sport, audience)
	if err != nil {
		s.logger.Error("ListGroupSessions: failed to list sessions for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListGroupSessions - repository error: %v", ErrInternal, err)
	}

	options := make([]GroupOption, 0, len(sessions))
	for _, session := range sessions {
		free, err := s.GroupFreeSeats(ctx, session)
		if err != nil {
			return nil, err
		}
		if free <= 0 {
			continue
		}
		options = append(options, GroupOption{Session: session, FreeSeats: free})
	}

	return options, nil
}

// GroupFreeSeats возвращает живое количество свободных мест в группе:
// вместимость минус участники активных бронирований
// Расхождение со счётчиком-кэшем не фатально, но попадает в лог
func (s *Service) GroupFreeSeats(ctx context.Context, session *domain.GroupSession) (int, error) {
	active, err := s.bookingRepo.CountActiveParticipants(ctx, domain.ClassGroup, session.ID)
	if err != nil {
		s.logger.Error("GroupFreeSeats: failed to count participants for session=%d: %v", session.ID, err)
		return 0, fmt.Errorf("%w: GroupFreeSeats - repository error: %v", ErrInternal, err)
	}

	if active != session.CurrentParticipants {
		s.logger.Warn("GroupFreeSeats: participant counter drift for session=%d: cached=%d actual=%d",
			session.ID, session.CurrentParticipants, active)
	}

	return session.FreeSeats(active), nil
}

// filterGroupDatesWithSeats оставляет только даты, на которые есть
// хотя бы одна группа со свободным местом
func (s *Service) filterGroupDatesWithSeats(ctx context.Context, dates []time.Time, filter DatesFilter) ([]time.Time, error) {
	result := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		options, err := s.ListGroupSessions(ctx, date, filter.Sport, filter.Audience)
		if err != nil {
			return nil, err
		}
		if len(options) > 0 {
			result = append(result, date)
		}
	}
	return result, nil
}

// freeRunStarts возвращает времена начала, с которых на дорожке
// свободно need слотов подряд. Слоты приходят отсортированными по времени
func freeRunStarts(slots []*domain.SimulatorSlot, need int) []types.TimeString {
	starts := make([]types.TimeString, 0)

	for i := 0; i+need <= len(slots); i++ {
		if !runIsFree(slots[i : i+need]) {
			continue
		}
		starts = append(starts, slots[i].StartTime)
	}

	return starts
}

// runIsFree проверяет, что слоты свободны и идут подряд без разрывов сетки
func runIsFree(run []*domain.SimulatorSlot) bool {
	for i, slot := range run {
		if slot.Booked {
			return false
		}
		if i == 0 {
			continue
		}
		expected, err := run[i-1].StartTime.AddMinutes(domain.SimulatorSlotMinutes)
		if err != nil || expected != slot.StartTime {
			return false
		}
	}
	return true
}
