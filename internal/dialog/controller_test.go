package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
	bookingsSvc "github.com/m04kA/SkiSchool-BookingService/internal/service/bookings"
	walletSvc "github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/SkiSchool-BookingService/pkg/txmanager"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// ---- Фейки ----

type fakeSessionStore struct {
	sessions map[int64]*Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*Session)}
}

func (f *fakeSessionStore) Get(ctx context.Context, tgUserID int64) (*Session, error) {
	s, ok := f.sessions[tgUserID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) Set(ctx context.Context, session *Session) error {
	f.sessions[session.TgUserID] = session
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, tgUserID int64) error {
	delete(f.sessions, tgUserID)
	return nil
}

type fakeAvailability struct {
	dates  []time.Time
	starts []availability.SimulatorStart
	slots  []*domain.InstructorSlot
	groups []availability.GroupOption
}

func (f *fakeAvailability) ListOpenDates(ctx context.Context, class domain.ResourceClass, now time.Time, filter availability.DatesFilter) ([]time.Time, error) {
	return f.dates, nil
}

func (f *fakeAvailability) ListSimulatorStartTimes(ctx context.Context, date time.Time, durationMinutes int) ([]availability.SimulatorStart, error) {
	return f.starts, nil
}

func (f *fakeAvailability) ListInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error) {
	return f.slots, nil
}

func (f *fakeAvailability) ListGroupSessions(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]availability.GroupOption, error) {
	return f.groups, nil
}

type fakeBookingsService struct {
	client *domain.Client
	list   []*domain.Booking
}

func (f *fakeBookingsService) GetClientByTgUserID(ctx context.Context, tgUserID int64) (*domain.Client, error) {
	if f.client == nil || f.client.TgUserID != tgUserID {
		return nil, bookingsSvc.ErrClientNotFound
	}
	copied := *f.client
	return &copied, nil
}

func (f *fakeBookingsService) ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error) {
	return f.list, nil
}

type fakeClientDirectory struct {
	dependents []*domain.Dependent
}

func (f *fakeClientDirectory) ListDependents(ctx context.Context, clientID int64) ([]*domain.Dependent, error) {
	return f.dependents, nil
}

type fakeWalletService struct {
	statement *walletSvc.Statement
}

func (f *fakeWalletService) GetStatement(ctx context.Context, clientID int64, limit int) (*walletSvc.Statement, error) {
	return f.statement, nil
}

type fakeCreator struct {
	resp     *create_booking.Response
	errs     []error // по одной на вызов; после исчерпания - nil
	requests []*create_booking.Request
}

func (f *fakeCreator) Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error) {
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.resp, nil
}

type fakeCanceller struct {
	resp     *cancel_booking.Response
	err      error
	requests []*cancel_booking.Request
}

func (f *fakeCanceller) Execute(ctx context.Context, req *cancel_booking.Request) (*cancel_booking.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
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

const tgUser = int64(555)

type fixture struct {
	store        *fakeSessionStore
	availability *fakeAvailability
	bookings     *fakeBookingsService
	clients      *fakeClientDirectory
	wallet       *fakeWalletService
	creator      *fakeCreator
	canceller    *fakeCanceller
}

func newFixture() *fixture {
	birth := time.Date(1990, time.May, 1, 0, 0, 0, 0, domain.VenueLocation)
	return &fixture{
		store: newFakeSessionStore(),
		availability: &fakeAvailability{
			dates: []time.Time{time.Date(2026, time.January, 20, 0, 0, 0, 0, domain.VenueLocation)},
			starts: []availability.SimulatorStart{
				{Lane: 1, StartTime: types.TimeString("10:00"), DurationMinutes: 60},
			},
		},
		bookings: &fakeBookingsService{
			client: &domain.Client{ID: 10, TgUserID: tgUser, Name: "Иван", SkillLevel: 5, BirthDate: &birth},
		},
		clients: &fakeClientDirectory{},
		wallet:  &fakeWalletService{},
		creator: &fakeCreator{resp: &create_booking.Response{
			ID:            1,
			Date:          time.Date(2026, time.January, 20, 0, 0, 0, 0, domain.VenueLocation),
			StartTime:     types.TimeString("10:00"),
			Price:         2400,
			PaymentMethod: domain.PaymentWallet,
		}},
		canceller: &fakeCanceller{resp: &cancel_booking.Response{
			BookingID:    42,
			RefundMethod: domain.PaymentWallet,
			RefundAmount: 1500,
		}},
	}
}

func (f *fixture) controller() *Controller {
	c := NewController(f.store, f.availability, f.bookings, f.clients, f.wallet,
		f.creator, f.canceller, nopLogger{})
	c.timeProvider = fixedClock{testNow}
	return c
}

func send(t *testing.T, c *Controller, text string) *Reply {
	t.Helper()
	reply, err := c.HandleMessage(context.Background(), tgUser, text)
	require.NoError(t, err)
	require.NotNil(t, reply)
	return reply
}

// ---- Тесты ----

func TestHandleMessage_Unregistered(t *testing.T) {
	f := newFixture()
	f.bookings.client = nil
	c := f.controller()

	reply, err := c.HandleMessage(context.Background(), tgUser, "/start")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "не зарегистрированы")

	// Сессия для незарегистрированного не заводится
	assert.Empty(t, f.store.sessions)
}

func TestHandleMessage_StartShowsMainMenu(t *testing.T) {
	f := newFixture()
	c := f.controller()

	reply := send(t, c, "/start")

	assert.Contains(t, reply.Text, "Иван")
	assert.Len(t, reply.Options, 4)
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_SimulatorBookingFlow(t *testing.T) {
	f := newFixture()
	c := f.controller()

	reply := send(t, c, "/book")
	assert.Contains(t, reply.Text, "Какую тренировку")

	reply = send(t, c, "1") // тренажёр
	assert.Contains(t, reply.Text, "Сколько минут")

	reply = send(t, c, "2") // 60 минут
	assert.Contains(t, reply.Text, "На какую дату")
	require.Len(t, reply.Options, 1)

	reply = send(t, c, "1") // 2026-01-20
	assert.Contains(t, reply.Text, "Во сколько")

	reply = send(t, c, "1") // 10:00
	assert.Contains(t, reply.Text, "Кто тренируется")
	assert.Equal(t, []string{"1. Я"}, reply.Options)

	reply = send(t, c, "1") // я
	assert.Contains(t, reply.Text, "Как оплачиваем")

	reply = send(t, c, "1") // кошелёк
	assert.Contains(t, reply.Text, "Проверьте бронирование")
	assert.Contains(t, reply.Text, "2026-01-20")
	assert.Contains(t, reply.Text, "Иван")

	reply = send(t, c, "1") // подтвердить
	assert.Contains(t, reply.Text, "Готово! Бронирование №1")

	// Транзактор получил собранный по шагам запрос
	require.Len(t, f.creator.requests, 1)
	req := f.creator.requests[0]
	assert.Equal(t, int64(10), req.ClientID)
	assert.Equal(t, domain.ClassSimulator, req.Resource.Class)
	require.NotNil(t, req.Simulator)
	assert.Equal(t, 1, req.Simulator.Lane)
	assert.Equal(t, types.TimeString("10:00"), req.Simulator.StartTime)
	assert.Equal(t, 60, req.Simulator.DurationMinutes)
	assert.Equal(t, create_booking.PaymentWallet, req.Payment)
	require.Len(t, req.Participants, 1)
	assert.Equal(t, "Иван", req.Participants[0].Name)
	assert.Equal(t, 35, req.Participants[0].Age)

	// После успеха диалог вернулся в главное меню
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_GroupFlow_MultipleParticipants(t *testing.T) {
	f := newFixture()
	session := &domain.GroupSession{
		ID:         7,
		StartTime:  types.TimeString("11:00"),
		SkillLevel: 3,
		Audience:   domain.AudienceChildren,
		Price:      1500,
	}
	f.availability.groups = []availability.GroupOption{{Session: session, FreeSeats: 4}}
	f.clients.dependents = []*domain.Dependent{
		{ID: 5, ClientID: 10, Name: "Петя", BirthDate: time.Date(2016, time.March, 1, 0, 0, 0, 0, domain.VenueLocation), SkillLevel: 4},
	}
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "3") // групповая
	send(t, c, "1") // лыжи
	send(t, c, "1") // дата
	send(t, c, "1") // группа

	reply := send(t, c, "2") // иждивенец
	assert.Contains(t, reply.Text, "Участников выбрано: 1")

	reply = send(t, c, "готово")
	assert.Contains(t, reply.Text, "Как оплачиваем")

	reply = send(t, c, "3") // как удобнее
	// Перед подтверждением видна итоговая стоимость: 1 участник по 1500
	assert.Contains(t, reply.Text, "Стоимость: 1500 руб")

	send(t, c, "1") // подтвердить

	require.Len(t, f.creator.requests, 1)
	req := f.creator.requests[0]
	assert.Equal(t, domain.ClassGroup, req.Resource.Class)
	assert.Equal(t, int64(7), req.Resource.ID)
	assert.Equal(t, create_booking.PaymentAuto, req.Payment)
	require.Len(t, req.Participants, 1)
	require.NotNil(t, req.Participants[0].DependentID)
	assert.Equal(t, int64(5), *req.Participants[0].DependentID)
	assert.Equal(t, "Петя", req.Participants[0].Name)
}

func TestHandleMessage_UnrecognizedInputReprompts(t *testing.T) {
	f := newFixture()
	c := f.controller()

	send(t, c, "/book")
	reply := send(t, c, "что-то невнятное")

	assert.Contains(t, reply.Text, "Не понял вас")
	// Диалог не продвинулся
	assert.Equal(t, StepChooseClass, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_StartResetsMidFlow(t *testing.T) {
	f := newFixture()
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "1")
	send(t, c, "/start")

	s := f.store.sessions[tgUser]
	assert.Equal(t, StepMainMenu, s.Step)
	assert.Empty(t, s.Data.ResourceClass)
}

func TestHandleMessage_CorruptedSessionResets(t *testing.T) {
	// Шаг выбора даты без списка показанных дат - сессия испорчена
	f := newFixture()
	f.store.sessions[tgUser] = &Session{TgUserID: tgUser, Step: StepChooseDate}
	c := f.controller()

	reply := send(t, c, "1")

	assert.Contains(t, reply.Text, "начнем сначала")
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_UnknownStepResets(t *testing.T) {
	f := newFixture()
	f.store.sessions[tgUser] = &Session{TgUserID: tgUser, Step: Step("legacy_step")}
	c := f.controller()

	reply := send(t, c, "1")

	assert.Contains(t, reply.Text, "начнем сначала")
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_ConfirmRetriesOnSerialization(t *testing.T) {
	f := newFixture()
	f.creator.errs = []error{txmanager.ErrSerialization}
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "1")
	send(t, c, "2")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1")
	reply := send(t, c, "1")

	// Первый вызов упал на сериализации, второй прошел
	assert.Len(t, f.creator.requests, 2)
	assert.Contains(t, reply.Text, "Готово!")
}

func TestHandleMessage_DoubleTapConfirm_BooksOnce(t *testing.T) {
	f := newFixture()
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "1")
	send(t, c, "2")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1") // диалог на шаге подтверждения

	// Два быстрых нажатия "подтвердить" от одного пользователя
	var (
		wg      sync.WaitGroup
		replies [2]*Reply
		errs    [2]error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], errs[i] = c.HandleMessage(context.Background(), tgUser, "1")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Транзактор выполнился ровно один раз: второе нажатие прочитало
	// сессию уже после сброса и попало в главное меню
	assert.Len(t, f.creator.requests, 1)
	assert.Contains(t, replies[0].Text+"\n"+replies[1].Text, "Готово! Бронирование №1")
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_SlotTakenExplained(t *testing.T) {
	f := newFixture()
	f.creator.errs = []error{create_booking.ErrSlotNotAvailable}
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "1")
	send(t, c, "2")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1")
	send(t, c, "1")
	reply := send(t, c, "1")

	assert.Contains(t, reply.Text, "только что заняли")
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_MyBookings(t *testing.T) {
	f := newFixture()
	f.bookings.list = []*domain.Booking{
		{
			ID:            42,
			ClientID:      10,
			ResourceClass: domain.ClassInstructor,
			Date:          time.Date(2026, time.January, 22, 0, 0, 0, 0, domain.VenueLocation),
			StartTime:     types.TimeString("12:00"),
			Price:         3750,
		},
	}
	c := f.controller()

	reply := send(t, c, "мои бронирования")

	assert.Contains(t, reply.Text, "№42")
	assert.Contains(t, reply.Text, "2026-01-22")
	assert.Contains(t, reply.Text, "инструктор")
}

func TestHandleMessage_MyBookings_Empty(t *testing.T) {
	f := newFixture()
	c := f.controller()

	reply := send(t, c, "/mybookings")
	assert.Contains(t, reply.Text, "нет активных бронирований")
}

func TestHandleMessage_CancelFlow(t *testing.T) {
	f := newFixture()
	f.bookings.list = []*domain.Booking{
		{
			ID:            42,
			ClientID:      10,
			ResourceClass: domain.ClassGroup,
			Date:          time.Date(2026, time.January, 25, 0, 0, 0, 0, domain.VenueLocation),
			StartTime:     types.TimeString("11:00"),
			Price:         1500,
		},
	}
	c := f.controller()

	reply := send(t, c, "/cancel")
	assert.Contains(t, reply.Text, "Какое бронирование отменить")
	require.Len(t, reply.Options, 1)

	reply = send(t, c, "1")
	assert.Contains(t, reply.Text, "Отменяем бронирование №42")

	reply = send(t, c, "1")
	assert.Contains(t, reply.Text, "1500 руб вернулись на кошелёк")

	require.Len(t, f.canceller.requests, 1)
	assert.Equal(t, int64(42), f.canceller.requests[0].BookingID)
	assert.Equal(t, int64(10), f.canceller.requests[0].ClientID)
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_CancelFlow_SubscriptionRefund(t *testing.T) {
	f := newFixture()
	f.bookings.list = []*domain.Booking{{ID: 42, ClientID: 10, ResourceClass: domain.ClassInstructor, StartTime: types.TimeString("12:00")}}
	f.canceller.resp = &cancel_booking.Response{
		BookingID:    42,
		RefundMethod: domain.PaymentSubscription,
		RefundAmount: 0,
	}
	c := f.controller()

	send(t, c, "/cancel")
	send(t, c, "1")
	reply := send(t, c, "да")

	assert.Contains(t, reply.Text, "занятие вернулось на абонемент")
}

func TestHandleMessage_CancelFlow_Declined(t *testing.T) {
	f := newFixture()
	f.bookings.list = []*domain.Booking{{ID: 42, ClientID: 10, ResourceClass: domain.ClassGroup, StartTime: types.TimeString("11:00")}}
	c := f.controller()

	send(t, c, "/cancel")
	send(t, c, "1")
	reply := send(t, c, "2")

	assert.Contains(t, reply.Text, "остается в силе")
	assert.Empty(t, f.canceller.requests)
}

func TestHandleMessage_CancelFlow_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	f.bookings.list = []*domain.Booking{{ID: 42, ClientID: 10, ResourceClass: domain.ClassGroup, StartTime: types.TimeString("11:00")}}
	f.canceller.err = cancel_booking.ErrAlreadyCancelled
	c := f.controller()

	send(t, c, "/cancel")
	send(t, c, "1")
	reply := send(t, c, "1")

	assert.Contains(t, reply.Text, "уже отменено")
}

func TestHandleMessage_Balance(t *testing.T) {
	f := newFixture()
	f.wallet.statement = &walletSvc.Statement{
		Wallet: &domain.Wallet{Number: "W-0001", Balance: 500},
		Entries: []*domain.LedgerEntry{
			{Amount: 2400, Type: domain.EntryDebit, Description: "Оплата бронирования №1"},
			{Amount: 1500, Type: domain.EntryCredit, Description: "Возврат за бронирование №2"},
		},
	}
	c := f.controller()

	reply := send(t, c, "/balance")

	assert.Contains(t, reply.Text, "Баланс: 500 руб")
	assert.Contains(t, reply.Text, "W-0001")
	assert.Contains(t, reply.Text, "-2400")
	assert.Contains(t, reply.Text, "+1500")
}

func TestHandleMessage_NoOpenDates(t *testing.T) {
	f := newFixture()
	f.availability.dates = nil
	c := f.controller()

	send(t, c, "/book")
	send(t, c, "2") // инструктор
	reply := send(t, c, "1")

	assert.Contains(t, reply.Text, "Свободных дат нет")
	assert.Equal(t, StepMainMenu, f.store.sessions[tgUser].Step)
}

func TestHandleMessage_SessionStoreFailure(t *testing.T) {
	f := newFixture()
	c := f.controller()
	c.sessions = failingStore{}

	_, err := c.HandleMessage(context.Background(), tgUser, "/start")
	assert.ErrorIs(t, err, ErrInternal)
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, tgUserID int64) (*Session, error) {
	return nil, errors.New("redis: connection refused")
}

func (failingStore) Set(ctx context.Context, session *Session) error { return nil }

func (failingStore) Delete(ctx context.Context, tgUserID int64) error { return nil }
