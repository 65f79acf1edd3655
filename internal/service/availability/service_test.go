package availability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	scheduleRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/schedule"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// ---- Фейки ----

type fakeScheduleRepo struct {
	simulatorSlots  []*domain.SimulatorSlot
	simulatorDates  []time.Time
	instructorDates []time.Time
	instructorSlots []*domain.InstructorSlot
	maxDate         time.Time
	maxDateErr      error
}

func (f *fakeScheduleRepo) ListFreeSimulatorDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return f.simulatorDates, nil
}

func (f *fakeScheduleRepo) ListSimulatorSlots(ctx context.Context, date time.Time) ([]*domain.SimulatorSlot, error) {
	return f.simulatorSlots, nil
}

func (f *fakeScheduleRepo) ListAvailableInstructorDates(ctx context.Context, from time.Time, sport *domain.Sport, instructorID *int64) ([]time.Time, error) {
	return f.instructorDates, nil
}

func (f *fakeScheduleRepo) ListAvailableInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error) {
	return f.instructorSlots, nil
}

func (f *fakeScheduleRepo) GetMaxScheduleDate(ctx context.Context) (time.Time, error) {
	if f.maxDateErr != nil {
		return time.Time{}, f.maxDateErr
	}
	return f.maxDate, nil
}

type fakeGroupSessionRepo struct {
	dates    []time.Time
	sessions []*domain.GroupSession
}

func (f *fakeGroupSessionRepo) ListActiveDates(ctx context.Context, from time.Time, sport *domain.Sport, audience *domain.Audience) ([]time.Time, error) {
	return f.dates, nil
}

func (f *fakeGroupSessionRepo) ListActiveByDate(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]*domain.GroupSession, error) {
	return f.sessions, nil
}

type fakeBookingRepo struct {
	activeBySession map[int64]int
}

func (f *fakeBookingRepo) CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error) {
	return f.activeBySession[resourceID], nil
}

type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Info(format string, v ...interface{})  {}
func (l *recordingLogger) Warn(format string, v ...interface{})  { l.warns = append(l.warns, format) }
func (l *recordingLogger) Error(format string, v ...interface{}) {}

func slot(lane int, start string, booked bool) *domain.SimulatorSlot {
	return &domain.SimulatorSlot{
		Lane:      lane,
		StartTime: types.TimeString(start),
		Booked:    booked,
	}
}

// ---- Тесты ----

func TestListSimulatorStartTimes_FindsFreeRuns(t *testing.T) {
	// Дорожка 1: 10:00 свободен, 10:30 занят, 11:00-11:30 свободны
	repo := &fakeScheduleRepo{
		simulatorSlots: []*domain.SimulatorSlot{
			slot(1, "10:00", false),
			slot(1, "10:30", true),
			slot(1, "11:00", false),
			slot(1, "11:30", false),
		},
	}
	svc := NewService(repo, &fakeGroupSessionRepo{}, &fakeBookingRepo{}, &recordingLogger{}, 30)

	starts, err := svc.ListSimulatorStartTimes(context.Background(), venueDate(2026, 1, 20), 60)
	require.NoError(t, err)

	// Единственный час подряд начинается в 11:00
	require.Len(t, starts, 1)
	assert.Equal(t, types.TimeString("11:00"), starts[0].StartTime)
	assert.Equal(t, 1, starts[0].Lane)
	assert.Equal(t, 60, starts[0].DurationMinutes)
}

func TestListSimulatorStartTimes_GridGapBreaksRun(t *testing.T) {
	// Слоты свободны, но между 10:30 и 11:30 дыра в сетке
	repo := &fakeScheduleRepo{
		simulatorSlots: []*domain.SimulatorSlot{
			slot(1, "10:00", false),
			slot(1, "10:30", false),
			slot(1, "11:30", false),
		},
	}
	svc := NewService(repo, &fakeGroupSessionRepo{}, &fakeBookingRepo{}, &recordingLogger{}, 30)

	starts, err := svc.ListSimulatorStartTimes(context.Background(), venueDate(2026, 1, 20), 60)
	require.NoError(t, err)

	require.Len(t, starts, 1)
	assert.Equal(t, types.TimeString("10:00"), starts[0].StartTime)
}

func TestListSimulatorStartTimes_DeduplicatesAcrossLanes(t *testing.T) {
	// 10:00 свободно на обеих дорожках - в выдаче время один раз,
	// с первой подходящей дорожкой
	repo := &fakeScheduleRepo{
		simulatorSlots: []*domain.SimulatorSlot{
			slot(2, "10:00", false),
			slot(1, "10:00", false),
			slot(1, "10:30", false),
		},
	}
	svc := NewService(repo, &fakeGroupSessionRepo{}, &fakeBookingRepo{}, &recordingLogger{}, 30)

	starts, err := svc.ListSimulatorStartTimes(context.Background(), venueDate(2026, 1, 20), 30)
	require.NoError(t, err)

	require.Len(t, starts, 2)
	assert.Equal(t, types.TimeString("10:00"), starts[0].StartTime)
	assert.Equal(t, 1, starts[0].Lane)
	assert.Equal(t, types.TimeString("10:30"), starts[1].StartTime)
}

func TestListSimulatorStartTimes_InvalidDuration(t *testing.T) {
	svc := NewService(&fakeScheduleRepo{}, &fakeGroupSessionRepo{}, &fakeBookingRepo{}, &recordingLogger{}, 30)

	_, err := svc.ListSimulatorStartTimes(context.Background(), venueDate(2026, 1, 20), 45)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = svc.ListSimulatorStartTimes(context.Background(), venueDate(2026, 1, 20), 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestGroupFreeSeats_LiveRecountWins(t *testing.T) {
	session := &domain.GroupSession{
		ID:                  7,
		MaxParticipants:     8,
		CurrentParticipants: 3, // кэш отстал
	}
	log := &recordingLogger{}
	bookings := &fakeBookingRepo{activeBySession: map[int64]int{7: 5}}
	svc := NewService(&fakeScheduleRepo{}, &fakeGroupSessionRepo{}, bookings, log, 30)

	free, err := svc.GroupFreeSeats(context.Background(), session)
	require.NoError(t, err)

	// Свободно по живому пересчёту, не по кэшу
	assert.Equal(t, 3, free)

	// Дрейф счётчика попал в лог
	require.Len(t, log.warns, 1)
	assert.True(t, strings.Contains(log.warns[0], "drift"))
}

func TestListGroupSessions_SkipsFullGroups(t *testing.T) {
	sessions := []*domain.GroupSession{
		{ID: 1, MaxParticipants: 6, CurrentParticipants: 6, Status: domain.GroupActive},
		{ID: 2, MaxParticipants: 6, CurrentParticipants: 2, Status: domain.GroupActive},
	}
	bookings := &fakeBookingRepo{activeBySession: map[int64]int{1: 6, 2: 2}}
	svc := NewService(&fakeScheduleRepo{}, &fakeGroupSessionRepo{sessions: sessions}, bookings, &recordingLogger{}, 30)

	options, err := svc.ListGroupSessions(context.Background(), venueDate(2026, 1, 20), nil, nil)
	require.NoError(t, err)

	require.Len(t, options, 1)
	assert.Equal(t, int64(2), options[0].Session.ID)
	assert.Equal(t, 4, options[0].FreeSeats)
}

func TestHorizon_FallsBackToConfiguredDays(t *testing.T) {
	repo := &fakeScheduleRepo{maxDateErr: scheduleRepo.ErrMaxDateNotConfigured}
	svc := NewService(repo, &fakeGroupSessionRepo{}, &fakeBookingRepo{}, &recordingLogger{}, 14)

	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, domain.VenueLocation)
	horizon, err := svc.Horizon(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, venueDate(2026, 1, 29), horizon)
}

func venueDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, domain.VenueLocation)
}
