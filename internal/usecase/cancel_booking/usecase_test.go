package cancel_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	walletSvc "github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// ---- Фейки ----

type fakeBookingRepo struct {
	booking   *domain.Booking
	cancelled []int64
	deleted   []int64
	active    int
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil || f.booking.ID != id {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *f.booking
	return &copied, nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBookingRepo) CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error) {
	return f.active, nil
}

type fakeClientRepo struct {
	client *domain.Client
}

func (f *fakeClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	copied := *f.client
	return &copied, nil
}

type fakeScheduleRepo struct {
	simulatorSlots []*domain.SimulatorSlot
	freedSlotIDs   []int64
	slotStatuses   map[int64]domain.SlotStatus
}

func (f *fakeScheduleRepo) GetSimulatorRange(ctx context.Context, lane int, date time.Time, startTimes []types.TimeString) ([]*domain.SimulatorSlot, error) {
	return f.simulatorSlots, nil
}

func (f *fakeScheduleRepo) MarkSimulatorSlots(ctx context.Context, ids []int64, booked bool) error {
	if !booked {
		f.freedSlotIDs = append(f.freedSlotIDs, ids...)
	}
	return nil
}

func (f *fakeScheduleRepo) UpdateInstructorSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) error {
	if f.slotStatuses == nil {
		f.slotStatuses = make(map[int64]domain.SlotStatus)
	}
	f.slotStatuses[id] = status
	return nil
}

type fakeGroupSessionRepo struct {
	session  *domain.GroupSession
	statuses map[int64]domain.GroupStatus
	counts   map[int64]int
}

func (f *fakeGroupSessionRepo) GetByID(ctx context.Context, id int64) (*domain.GroupSession, error) {
	copied := *f.session
	return &copied, nil
}

func (f *fakeGroupSessionRepo) UpdateStatus(ctx context.Context, id int64, status domain.GroupStatus) error {
	if f.statuses == nil {
		f.statuses = make(map[int64]domain.GroupStatus)
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeGroupSessionRepo) UpdateCurrentParticipants(ctx context.Context, id int64, count int) error {
	if f.counts == nil {
		f.counts = make(map[int64]int)
	}
	f.counts[id] = count
	return nil
}

type fakeWalletService struct {
	credits   []float64
	returned  []int64
	returnErr error
}

func (f *fakeWalletService) Credit(ctx context.Context, clientID int64, amount float64, description string) (*domain.LedgerEntry, error) {
	f.credits = append(f.credits, amount)
	return &domain.LedgerEntry{ID: 1, Type: domain.EntryCredit, Amount: amount}, nil
}

func (f *fakeWalletService) ReturnSessionByBooking(ctx context.Context, bookingID int64, now time.Time) (*domain.Subscription, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	f.returned = append(f.returned, bookingID)
	return &domain.Subscription{ID: 3, RemainingSessions: 1, Status: domain.SubscriptionActive}, nil
}

type fakeNotifyClient struct {
	sent []*notifyservice.Notification
}

func (f *fakeNotifyClient) SendAsync(n *notifyservice.Notification) {
	f.sent = append(f.sent, n)
}

type immediateTx struct{}

func (immediateTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// ---- Обвязка ----

var testNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, domain.VenueLocation)

func venueDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, domain.VenueLocation)
}

type fixture struct {
	bookings *fakeBookingRepo
	clients  *fakeClientRepo
	schedule *fakeScheduleRepo
	groups   *fakeGroupSessionRepo
	wallet   *fakeWalletService
	notify   *fakeNotifyClient
}

func newFixture() *fixture {
	return &fixture{
		bookings: &fakeBookingRepo{},
		clients:  &fakeClientRepo{client: &domain.Client{ID: 10, TgUserID: 555, Name: "Иван"}},
		schedule: &fakeScheduleRepo{},
		groups:   &fakeGroupSessionRepo{},
		wallet:   &fakeWalletService{},
		notify:   &fakeNotifyClient{},
	}
}

func (f *fixture) useCase() *UseCase {
	uc := NewUseCase(f.bookings, f.clients, f.schedule, f.groups, f.wallet,
		f.notify, immediateTx{}, nopLogger{})
	uc.timeProvider = fixedClock{testNow}
	return uc
}

func instructorBooking() *domain.Booking {
	sport := domain.SportSki
	return &domain.Booking{
		ID:              42,
		ClientID:        10,
		ResourceClass:   domain.ClassInstructor,
		ResourceID:      9,
		Date:            venueDate(2026, time.January, 22),
		StartTime:       types.TimeString("12:00"),
		DurationMinutes: 90,
		Sport:           &sport,
		Price:           3750,
		PaymentMethod:   domain.PaymentWallet,
		Status:          domain.BookingConfirmed,
	}
}

// ---- Тесты ----

func TestExecute_WalletRefund(t *testing.T) {
	f := newFixture()
	f.bookings.booking = instructorBooking()
	uc := f.useCase()

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	// Возврат ровно того, что было списано
	assert.Equal(t, int64(42), resp.BookingID)
	assert.Equal(t, domain.PaymentWallet, resp.RefundMethod)
	assert.Equal(t, 3750.0, resp.RefundAmount)
	require.Len(t, f.wallet.credits, 1)
	assert.Equal(t, 3750.0, f.wallet.credits[0])

	// Слот инструктора вернулся в расписание, бронь закрыта статусом
	assert.Equal(t, domain.SlotAvailable, f.schedule.slotStatuses[9])
	assert.Equal(t, []int64{42}, f.bookings.cancelled)
	assert.Empty(t, f.bookings.deleted)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, notifyservice.EventBookingCancelled, f.notify.sent[0].Event)
}

func TestExecute_SubscriptionRefund(t *testing.T) {
	f := newFixture()
	b := instructorBooking()
	b.PaymentMethod = domain.PaymentSubscription
	b.Price = 0
	f.bookings.booking = b
	uc := f.useCase()

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	// Возвращается занятие, деньги не трогаем
	assert.Equal(t, domain.PaymentSubscription, resp.RefundMethod)
	assert.Equal(t, 0.0, resp.RefundAmount)
	assert.Equal(t, []int64{42}, f.wallet.returned)
	assert.Empty(t, f.wallet.credits)
}

func TestExecute_SubscriptionRefund_NoUsage(t *testing.T) {
	// Запись об использовании не найдена - отмена продолжается без возврата
	f := newFixture()
	b := instructorBooking()
	b.PaymentMethod = domain.PaymentSubscription
	f.bookings.booking = b
	f.wallet.returnErr = walletSvc.ErrUsageNotFound
	uc := f.useCase()

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	assert.Equal(t, 0.0, resp.RefundAmount)
	assert.Equal(t, []int64{42}, f.bookings.cancelled)
}

func TestExecute_ZeroPriceSkipsRefund(t *testing.T) {
	f := newFixture()
	b := instructorBooking()
	b.Price = 0
	f.bookings.booking = b
	uc := f.useCase()

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	assert.Equal(t, 0.0, resp.RefundAmount)
	assert.Empty(t, f.wallet.credits)
}

func TestExecute_Simulator_DeletesLegacyRecord(t *testing.T) {
	f := newFixture()
	f.bookings.booking = &domain.Booking{
		ID:              42,
		ClientID:        10,
		ResourceClass:   domain.ClassSimulator,
		ResourceID:      1,
		Date:            venueDate(2026, time.January, 20),
		StartTime:       types.TimeString("10:00"),
		DurationMinutes: 60,
		Price:           2400,
		PaymentMethod:   domain.PaymentWallet,
		Status:          domain.BookingConfirmed,
	}
	f.schedule.simulatorSlots = []*domain.SimulatorSlot{
		{ID: 1, Lane: 1, StartTime: "10:00", Booked: true},
		{ID: 2, Lane: 1, StartTime: "10:30", Booked: true},
	}
	uc := f.useCase()

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	assert.Equal(t, 2400.0, resp.RefundAmount)

	// Слоты сетки освобождены, legacy-запись удалена целиком
	assert.ElementsMatch(t, []int64{1, 2}, f.schedule.freedSlotIDs)
	assert.Equal(t, []int64{42}, f.bookings.deleted)
	assert.Empty(t, f.bookings.cancelled)
}

func TestExecute_GroupSeat_ReaggregatesCounter(t *testing.T) {
	f := newFixture()
	f.bookings.booking = &domain.Booking{
		ID:            42,
		ClientID:      10,
		ResourceClass: domain.ClassGroup,
		ResourceID:    7,
		Date:          venueDate(2026, time.January, 25),
		StartTime:     types.TimeString("11:00"),
		Price:         1500,
		PaymentMethod: domain.PaymentWallet,
		Status:        domain.BookingConfirmed,
	}
	slotID := int64(9)
	f.groups.session = &domain.GroupSession{
		ID:                  7,
		MaxParticipants:     6,
		CurrentParticipants: 5,
		Status:              domain.GroupActive,
		InstructorSlotID:    &slotID,
	}
	f.bookings.active = 4 // после отмены
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	// Счётчик пересчитан по активным броням, группа живет дальше
	assert.Equal(t, 4, f.groups.counts[7])
	assert.Empty(t, f.groups.statuses)
	assert.Equal(t, []int64{42}, f.bookings.cancelled)

	// Участники еще остались - слот инструктора не трогаем
	assert.Empty(t, f.schedule.slotStatuses)
}

func TestExecute_GroupSeat_LastCancelFreesBackingSlot(t *testing.T) {
	f := newFixture()
	f.bookings.booking = &domain.Booking{
		ID:            42,
		ClientID:      10,
		ResourceClass: domain.ClassGroup,
		ResourceID:    7,
		Date:          venueDate(2026, time.January, 25),
		StartTime:     types.TimeString("11:00"),
		Price:         1500,
		PaymentMethod: domain.PaymentWallet,
		Status:        domain.BookingConfirmed,
	}
	slotID := int64(9)
	f.groups.session = &domain.GroupSession{
		ID:                  7,
		MaxParticipants:     6,
		CurrentParticipants: 1,
		Status:              domain.GroupActive,
		InstructorSlotID:    &slotID,
	}
	f.bookings.active = 0 // после отмены группа пуста
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	// Группа опустела: слот инструктора вернулся в расписание,
	// сама группа при этом не отменяется
	assert.Equal(t, 0, f.groups.counts[7])
	assert.Equal(t, domain.SlotAvailable, f.schedule.slotStatuses[9])
	assert.Empty(t, f.groups.statuses)
}

func TestExecute_PrivateGroup_CancelsWholeGroup(t *testing.T) {
	f := newFixture()
	f.bookings.booking = &domain.Booking{
		ID:            42,
		ClientID:      10,
		ResourceClass: domain.ClassGroup,
		ResourceID:    100,
		Date:          venueDate(2026, time.January, 22),
		StartTime:     types.TimeString("12:00"),
		Price:         3750,
		PaymentMethod: domain.PaymentWallet,
		Status:        domain.BookingConfirmed,
	}
	slotID := int64(9)
	f.groups.session = &domain.GroupSession{
		ID:               100,
		Private:          true,
		Status:           domain.GroupActive,
		InstructorSlotID: &slotID,
	}
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	require.NoError(t, err)

	// Группа отменена целиком, её слот инструктора вернулся в расписание
	assert.Equal(t, domain.GroupCancelled, f.groups.statuses[100])
	assert.Equal(t, domain.SlotAvailable, f.schedule.slotStatuses[9])
	assert.Empty(t, f.groups.counts)
}

func TestExecute_BookingNotFound(t *testing.T) {
	f := newFixture()
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 404})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_ForeignBooking(t *testing.T) {
	// Чужая бронь неотличима от несуществующей
	f := newFixture()
	f.bookings.booking = instructorBooking()
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 99, BookingID: 42})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	assert.Empty(t, f.wallet.credits)
	assert.Empty(t, f.bookings.cancelled)
}

func TestExecute_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	b := instructorBooking()
	b.Status = domain.BookingCancelled
	f.bookings.booking = b
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 42})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// Повторного возврата нет
	assert.Empty(t, f.wallet.credits)
}

func TestExecute_InvalidInput(t *testing.T) {
	f := newFixture()
	uc := f.useCase()

	_, err := uc.Execute(context.Background(), &Request{ClientID: 0, BookingID: 42})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ClientID: 10, BookingID: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
