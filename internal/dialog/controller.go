package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/bookings"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/SkiSchool-BookingService/pkg/txmanager"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// serializationRetryDelay пауза перед повторной попыткой транзакции,
// не прошедшей сериализацию
const serializationRetryDelay = 100 * time.Millisecond

// simulatorDurations предлагаемые длительности тренировки на тренажёре
var simulatorDurations = []int{30, 60, 90, 120}

// Reply ответ контроллера для слоя представления
// Текст и список вариантов; форматирование и клавиатуры - забота транспорта
type Reply struct {
	Text    string
	Options []string
}

// Controller конечный автомат диалога, ключуемый шагом сессии
// На каждый входящий текст: глобальные команды, затем обработчик
// текущего шага. Нераспознанный ввод переспрашивает, не продвигая диалог
type Controller struct {
	sessions     SessionStore
	availability AvailabilityService
	bookings     BookingsService
	clients      ClientDirectory
	wallet       WalletService
	creator      BookingCreator
	canceller    BookingCanceller
	timeProvider TimeProvider
	logger       Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewController создает новый экземпляр контроллера диалога
func NewController(
	sessions SessionStore,
	availabilityService AvailabilityService,
	bookingsService BookingsService,
	clients ClientDirectory,
	walletService WalletService,
	creator BookingCreator,
	canceller BookingCanceller,
	logger Logger,
) *Controller {
	return &Controller{
		sessions:     sessions,
		availability: availabilityService,
		bookings:     bookingsService,
		clients:      clients,
		wallet:       walletService,
		creator:      creator,
		canceller:    canceller,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		userLocks:    make(map[int64]*sync.Mutex),
	}
}

// HandleMessage обрабатывает одно входящее сообщение пользователя
// Сообщения одного пользователя обрабатываются строго по одному:
// повторное нажатие видит сессию уже после сохранения первого сообщения
// и не может запустить транзактор второй раз
func (c *Controller) HandleMessage(ctx context.Context, tgUserID int64, text string) (*Reply, error) {
	lock := c.userLock(tgUserID)
	lock.Lock()
	defer lock.Unlock()

	intent := ParseIntent(text)

	client, err := c.bookings.GetClientByTgUserID(ctx, tgUserID)
	if err != nil {
		if errors.Is(err, bookings.ErrClientNotFound) {
			return &Reply{Text: "Вы еще не зарегистрированы. Пройдите регистрацию и возвращайтесь."}, nil
		}
		c.logger.Error("HandleMessage: failed to resolve client tg_user=%d: %v", tgUserID, err)
		return nil, fmt.Errorf("%w: failed to resolve client: %v", ErrInternal, err)
	}

	session, err := c.loadSession(ctx, tgUserID)
	if err != nil {
		return nil, err
	}
	session.Data.ClientID = client.ID

	reply := c.dispatch(ctx, session, client, intent)

	session.UpdatedAt = c.timeProvider.Now()
	if err := c.sessions.Set(ctx, session); err != nil {
		c.logger.Error("HandleMessage: failed to save session tg_user=%d: %v", tgUserID, err)
		return nil, fmt.Errorf("%w: failed to save session: %v", ErrInternal, err)
	}

	return reply, nil
}

// userLock возвращает мьютекс пользователя
func (c *Controller) userLock(tgUserID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.userLocks[tgUserID]
	if !ok {
		lock = &sync.Mutex{}
		c.userLocks[tgUserID] = lock
	}
	return lock
}

func (c *Controller) loadSession(ctx context.Context, tgUserID int64) (*Session, error) {
	session, err := c.sessions.Get(ctx, tgUserID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return NewSession(tgUserID), nil
		}
		c.logger.Error("loadSession: failed to get session tg_user=%d: %v", tgUserID, err)
		return nil, fmt.Errorf("%w: failed to get session: %v", ErrInternal, err)
	}
	return session, nil
}

// dispatch сначала глобальные команды, затем обработчик текущего шага
func (c *Controller) dispatch(ctx context.Context, session *Session, client *domain.Client, intent Intent) *Reply {
	switch intent.Kind {
	case IntentStart, IntentMainMenu:
		session.Reset()
		return c.mainMenu(client)
	case IntentBook:
		session.Reset()
		session.Step = StepChooseClass
		return chooseClassReply()
	case IntentMyBookings:
		return c.myBookings(ctx, session, client)
	case IntentCancelBooking:
		return c.startCancellation(ctx, session, client)
	case IntentBalance:
		return c.balance(ctx, session, client)
	}

	switch session.Step {
	case StepMainMenu:
		return c.mainMenu(client)
	case StepChooseClass:
		return c.handleChooseClass(ctx, session, intent.Text)
	case StepChooseSport:
		return c.handleChooseSport(ctx, session, intent.Text)
	case StepChooseDuration:
		return c.handleChooseDuration(ctx, session, intent.Text)
	case StepChooseDate:
		return c.handleChooseDate(ctx, session, intent.Text)
	case StepChooseTime:
		return c.handleChooseTime(ctx, session, client, intent.Text)
	case StepChooseSlot:
		return c.handleChooseSlot(ctx, session, client, intent.Text)
	case StepChooseSession:
		return c.handleChooseSession(ctx, session, client, intent.Text)
	case StepChooseParticipant:
		return c.handleChooseParticipant(ctx, session, client, intent.Text)
	case StepChoosePayment:
		return c.handleChoosePayment(session, intent.Text)
	case StepConfirm:
		return c.handleConfirm(ctx, session, intent.Text)
	case StepCancelChoose:
		return c.handleCancelChoose(session, intent.Text)
	case StepCancelConfirm:
		return c.handleCancelConfirm(ctx, session, intent.Text)
	default:
		c.logger.Warn("dispatch: unknown step %q for tg_user=%d, resetting", session.Step, session.TgUserID)
		return c.corrupted(session, client)
	}
}

// corrupted сбрасывает испорченную сессию в главное меню
func (c *Controller) corrupted(session *Session, client *domain.Client) *Reply {
	c.logger.Warn("session corrupted at step %q for tg_user=%d", session.Step, session.TgUserID)
	session.Reset()
	reply := c.mainMenu(client)
	reply.Text = "Что-то пошло не так, начнем сначала.\n\n" + reply.Text
	return reply
}

func (c *Controller) mainMenu(client *domain.Client) *Reply {
	return &Reply{
		Text: fmt.Sprintf("Здравствуйте, %s! Что хотите сделать?", client.Name),
		Options: []string{
			"Забронировать",
			"Мои бронирования",
			"Отменить бронирование",
			"Баланс",
		},
	}
}

// ---- Бронирование ----

func chooseClassReply() *Reply {
	return &Reply{
		Text: "Какую тренировку бронируем?",
		Options: []string{
			"1. Тренажёр",
			"2. Инструктор на склоне",
			"3. Групповая тренировка",
			"4. Своя группа с инструктором",
		},
	}
}

func (c *Controller) handleChooseClass(ctx context.Context, session *Session, text string) *Reply {
	choice, ok := parseChoice(text, 4)
	if !ok {
		return reprompt(chooseClassReply())
	}

	switch choice {
	case 1:
		session.Data.ResourceClass = domain.ClassSimulator
		session.Step = StepChooseDuration
		return chooseDurationReply()
	case 2:
		session.Data.ResourceClass = domain.ClassInstructor
		session.Step = StepChooseSport
		return chooseSportReply()
	case 3:
		session.Data.ResourceClass = domain.ClassGroup
		session.Step = StepChooseSport
		return chooseSportReply()
	default:
		session.Data.ResourceClass = domain.ClassGroup
		session.Data.PrivateGroup = true
		session.Step = StepChooseSport
		return chooseSportReply()
	}
}

func chooseSportReply() *Reply {
	return &Reply{
		Text:    "Лыжи или сноуборд?",
		Options: []string{"1. Лыжи", "2. Сноуборд"},
	}
}

func (c *Controller) handleChooseSport(ctx context.Context, session *Session, text string) *Reply {
	choice, ok := parseChoice(text, 2)
	if !ok {
		return reprompt(chooseSportReply())
	}

	sport := domain.SportSki
	if choice == 2 {
		sport = domain.SportSnowboard
	}
	session.Data.Sport = &sport

	return c.toChooseDate(ctx, session)
}

func chooseDurationReply() *Reply {
	options := make([]string, 0, len(simulatorDurations))
	for i, d := range simulatorDurations {
		options = append(options, fmt.Sprintf("%d. %d минут", i+1, d))
	}
	return &Reply{Text: "Сколько минут тренируемся?", Options: options}
}

func (c *Controller) handleChooseDuration(ctx context.Context, session *Session, text string) *Reply {
	choice, ok := parseChoice(text, len(simulatorDurations))
	if !ok {
		return reprompt(chooseDurationReply())
	}

	session.Data.DurationMinutes = simulatorDurations[choice-1]
	return c.toChooseDate(ctx, session)
}

// toChooseDate показывает открытые даты для выбранного класса
func (c *Controller) toChooseDate(ctx context.Context, session *Session) *Reply {
	now := c.timeProvider.Now()

	// Класс instructor используется и для частной группы: места смотрим
	// в расписании инструкторов
	class := session.Data.ResourceClass
	filter := availability.DatesFilter{Sport: session.Data.Sport}
	if session.Data.PrivateGroup {
		class = domain.ClassInstructor
	}

	dates, err := c.availability.ListOpenDates(ctx, class, now, filter)
	if err != nil {
		c.logger.Error("toChooseDate: failed to list dates: %v", err)
		return serviceUnavailableReply()
	}

	if len(dates) == 0 {
		session.Reset()
		return &Reply{Text: "Свободных дат нет. Загляните позже или выберите другой вид тренировки."}
	}

	session.Data.DateOptions = make([]string, 0, len(dates))
	options := make([]string, 0, len(dates))
	for i, d := range dates {
		formatted := d.Format(domain.DateFormat)
		session.Data.DateOptions = append(session.Data.DateOptions, formatted)
		options = append(options, fmt.Sprintf("%d. %s", i+1, formatted))
	}

	session.Step = StepChooseDate
	return &Reply{Text: "На какую дату?", Options: options}
}

func (c *Controller) handleChooseDate(ctx context.Context, session *Session, text string) *Reply {
	if len(session.Data.DateOptions) == 0 {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, len(session.Data.DateOptions))
	if !ok {
		return reprompt(&Reply{Text: "Выберите дату из списка."})
	}
	session.Data.Date = session.Data.DateOptions[choice-1]

	date, err := time.ParseInLocation(domain.DateFormat, session.Data.Date, domain.VenueLocation)
	if err != nil {
		return c.resetCorrupted(session)
	}

	switch {
	case session.Data.ResourceClass == domain.ClassSimulator:
		return c.toChooseTime(ctx, session, date)
	case session.Data.ResourceClass == domain.ClassInstructor || session.Data.PrivateGroup:
		return c.toChooseSlot(ctx, session, date)
	default:
		return c.toChooseSession(ctx, session, date)
	}
}

func (c *Controller) toChooseTime(ctx context.Context, session *Session, date time.Time) *Reply {
	starts, err := c.availability.ListSimulatorStartTimes(ctx, date, session.Data.DurationMinutes)
	if err != nil {
		c.logger.Error("toChooseTime: failed to list start times: %v", err)
		return serviceUnavailableReply()
	}

	if len(starts) == 0 {
		return c.noOptionsOnDate(session)
	}

	session.Data.TimeOptions = make([]string, 0, len(starts))
	session.Data.LaneByTime = make(map[string]int, len(starts))
	options := make([]string, 0, len(starts))
	for i, s := range starts {
		key := s.StartTime.String()
		session.Data.TimeOptions = append(session.Data.TimeOptions, key)
		session.Data.LaneByTime[key] = s.Lane
		options = append(options, fmt.Sprintf("%d. %s", i+1, key))
	}

	session.Step = StepChooseTime
	return &Reply{Text: "Во сколько начинаем?", Options: options}
}

func (c *Controller) handleChooseTime(ctx context.Context, session *Session, client *domain.Client, text string) *Reply {
	if len(session.Data.TimeOptions) == 0 || session.Data.LaneByTime == nil {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, len(session.Data.TimeOptions))
	if !ok {
		return reprompt(&Reply{Text: "Выберите время из списка."})
	}

	// Ключи TimeOptions получены из TimeString.String, формат валиден
	key := session.Data.TimeOptions[choice-1]
	session.Data.StartTime = types.TimeString(key)
	session.Data.Lane = session.Data.LaneByTime[key]

	return c.toChooseParticipant(ctx, session, client)
}

func (c *Controller) toChooseSlot(ctx context.Context, session *Session, date time.Time) *Reply {
	slots, err := c.availability.ListInstructorSlots(ctx, date, session.Data.Sport, nil)
	if err != nil {
		c.logger.Error("toChooseSlot: failed to list instructor slots: %v", err)
		return serviceUnavailableReply()
	}

	if len(slots) == 0 {
		return c.noOptionsOnDate(session)
	}

	session.Data.OptionIDs = make([]int64, 0, len(slots))
	options := make([]string, 0, len(slots))
	for i, slot := range slots {
		session.Data.OptionIDs = append(session.Data.OptionIDs, slot.ID)
		options = append(options, fmt.Sprintf("%d. %s, %s (%d мин)",
			i+1, slot.StartTime, slot.InstructorName, slot.DurationMinutes))
	}

	session.Step = StepChooseSlot
	return &Reply{Text: "Выберите слот инструктора:", Options: options}
}

func (c *Controller) handleChooseSlot(ctx context.Context, session *Session, client *domain.Client, text string) *Reply {
	if len(session.Data.OptionIDs) == 0 {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, len(session.Data.OptionIDs))
	if !ok {
		return reprompt(&Reply{Text: "Выберите слот из списка."})
	}

	session.Data.InstructorSlotID = session.Data.OptionIDs[choice-1]
	return c.toChooseParticipant(ctx, session, client)
}

func (c *Controller) toChooseSession(ctx context.Context, session *Session, date time.Time) *Reply {
	groups, err := c.availability.ListGroupSessions(ctx, date, session.Data.Sport, nil)
	if err != nil {
		c.logger.Error("toChooseSession: failed to list group sessions: %v", err)
		return serviceUnavailableReply()
	}

	if len(groups) == 0 {
		return c.noOptionsOnDate(session)
	}

	session.Data.OptionIDs = make([]int64, 0, len(groups))
	session.Data.OptionPrices = make([]float64, 0, len(groups))
	options := make([]string, 0, len(groups))
	for i, g := range groups {
		session.Data.OptionIDs = append(session.Data.OptionIDs, g.Session.ID)
		session.Data.OptionPrices = append(session.Data.OptionPrices, g.Session.Price)
		options = append(options, fmt.Sprintf("%d. %s, уровень %d+, %s, свободно %d, %.0f руб",
			i+1, g.Session.StartTime, g.Session.SkillLevel,
			audienceLabel(g.Session.Audience), g.FreeSeats, g.Session.Price))
	}

	session.Step = StepChooseSession
	return &Reply{Text: "Выберите группу:", Options: options}
}

func (c *Controller) handleChooseSession(ctx context.Context, session *Session, client *domain.Client, text string) *Reply {
	if len(session.Data.OptionIDs) == 0 {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, len(session.Data.OptionIDs))
	if !ok {
		return reprompt(&Reply{Text: "Выберите группу из списка."})
	}

	session.Data.GroupSessionID = session.Data.OptionIDs[choice-1]
	if choice-1 < len(session.Data.OptionPrices) {
		// Цена за одного участника, итог считается при подтверждении
		session.Data.Price = session.Data.OptionPrices[choice-1]
	}
	return c.toChooseParticipant(ctx, session, client)
}

// toChooseParticipant предлагает выбор из клиента и его иждивенцев
func (c *Controller) toChooseParticipant(ctx context.Context, session *Session, client *domain.Client) *Reply {
	dependents, err := c.clients.ListDependents(ctx, client.ID)
	if err != nil {
		c.logger.Error("toChooseParticipant: failed to list dependents: %v", err)
		return serviceUnavailableReply()
	}

	session.Data.DependentIDs = make([]int64, 0, len(dependents))
	options := []string{"1. Я"}
	for i, d := range dependents {
		session.Data.DependentIDs = append(session.Data.DependentIDs, d.ID)
		options = append(options, fmt.Sprintf("%d. %s", i+2, d.Name))
	}

	text := "Кто тренируется?"
	if c.allowsMultipleParticipants(session) && len(session.Data.Participants) > 0 {
		text = fmt.Sprintf("Участников выбрано: %d. Добавьте еще или напишите \"готово\".", len(session.Data.Participants))
	}

	session.Step = StepChooseParticipant
	return &Reply{Text: text, Options: options}
}

func (c *Controller) handleChooseParticipant(ctx context.Context, session *Session, client *domain.Client, text string) *Reply {
	multiple := c.allowsMultipleParticipants(session)

	if multiple && strings.EqualFold(strings.TrimSpace(text), "готово") {
		if len(session.Data.Participants) == 0 {
			return reprompt(&Reply{Text: "Сначала выберите хотя бы одного участника."})
		}
		session.Step = StepChoosePayment
		return choosePaymentReply()
	}

	choice, ok := parseChoice(text, len(session.Data.DependentIDs)+1)
	if !ok {
		return reprompt(&Reply{Text: "Выберите участника из списка."})
	}

	draft, ok := c.buildParticipant(ctx, session, client, choice)
	if !ok {
		return c.resetCorrupted(session)
	}
	session.Data.Participants = append(session.Data.Participants, draft)

	if multiple {
		return c.toChooseParticipant(ctx, session, client)
	}

	session.Step = StepChoosePayment
	return choosePaymentReply()
}

func (c *Controller) buildParticipant(ctx context.Context, session *Session, client *domain.Client, choice int) (ParticipantDraft, bool) {
	now := c.timeProvider.Now()

	if choice == 1 {
		age := client.Age(now)
		if age < 0 {
			// Дата рождения клиента неизвестна - считаем взрослым
			age = domain.AdultMinAge
		}
		return ParticipantDraft{
			Name:       client.Name,
			Age:        age,
			SkillLevel: client.SkillLevel,
		}, true
	}

	dependents, err := c.clients.ListDependents(ctx, client.ID)
	if err != nil || choice-2 >= len(dependents) {
		return ParticipantDraft{}, false
	}

	d := dependents[choice-2]
	return ParticipantDraft{
		DependentID: &d.ID,
		Name:        d.Name,
		Age:         d.Age(now),
		SkillLevel:  d.SkillLevel,
	}, true
}

func choosePaymentReply() *Reply {
	return &Reply{
		Text: "Как оплачиваем?",
		Options: []string{
			"1. Кошелёк",
			"2. Абонемент",
			"3. Как удобнее",
		},
	}
}

func (c *Controller) handleChoosePayment(session *Session, text string) *Reply {
	choice, ok := parseChoice(text, 3)
	if !ok {
		return reprompt(choosePaymentReply())
	}

	switch choice {
	case 1:
		session.Data.Payment = string(create_booking.PaymentWallet)
	case 2:
		session.Data.Payment = string(create_booking.PaymentSubscription)
	default:
		session.Data.Payment = string(create_booking.PaymentAuto)
	}

	session.Step = StepConfirm
	return &Reply{
		Text:    c.confirmationSummary(session),
		Options: []string{"1. Подтвердить", "2. Отменить"},
	}
}

func (c *Controller) confirmationSummary(session *Session) string {
	var b strings.Builder
	b.WriteString("Проверьте бронирование:\n")
	b.WriteString(fmt.Sprintf("Тренировка: %s\n", classLabel(session.Data)))
	b.WriteString(fmt.Sprintf("Дата: %s\n", session.Data.Date))
	if !session.Data.StartTime.IsZero() {
		b.WriteString(fmt.Sprintf("Время: %s\n", session.Data.StartTime))
	}
	// Для тренажёра и инструктора цену считает транзактор, до подтверждения
	// она неизвестна; у групповой тренировки цена видна из выбранного варианта
	if session.Data.Price > 0 && len(session.Data.Participants) > 0 {
		total := session.Data.Price * float64(len(session.Data.Participants))
		b.WriteString(fmt.Sprintf("Стоимость: %.0f руб\n", total))
	}
	names := make([]string, 0, len(session.Data.Participants))
	for _, p := range session.Data.Participants {
		names = append(names, p.Name)
	}
	b.WriteString(fmt.Sprintf("Участники: %s\n", strings.Join(names, ", ")))
	b.WriteString("Подтверждаете?")
	return b.String()
}

func (c *Controller) handleConfirm(ctx context.Context, session *Session, text string) *Reply {
	choice, ok := parseChoice(text, 2)
	if !ok && !strings.EqualFold(strings.TrimSpace(text), "да") {
		return reprompt(&Reply{Text: "Подтвердите или отмените бронирование.", Options: []string{"1. Подтвердить", "2. Отменить"}})
	}
	if ok && choice == 2 {
		session.Reset()
		return &Reply{Text: "Бронирование отменено. Возвращаю в главное меню."}
	}

	req, err := c.buildCreateRequest(session)
	if err != nil {
		return c.resetCorrupted(session)
	}

	resp, err := c.executeCreate(ctx, req)
	if err != nil {
		reply := &Reply{Text: bookingErrorText(err)}
		session.Reset()
		return reply
	}

	session.Reset()
	return &Reply{Text: fmt.Sprintf(
		"Готово! Бронирование №%d на %s %s. Стоимость %.0f руб, оплата: %s.",
		resp.ID, resp.Date.Format(domain.DateFormat), resp.StartTime, resp.Price, paymentLabel(resp.PaymentMethod))}
}

func (c *Controller) buildCreateRequest(session *Session) (*create_booking.Request, error) {
	d := session.Data

	participants := make([]create_booking.ParticipantInput, 0, len(d.Participants))
	for _, p := range d.Participants {
		participants = append(participants, create_booking.ParticipantInput{
			DependentID: p.DependentID,
			Name:        p.Name,
			Age:         p.Age,
			SkillLevel:  p.SkillLevel,
		})
	}
	if len(participants) == 0 {
		return nil, ErrSessionCorrupted
	}

	req := &create_booking.Request{
		ClientID:     d.ClientID,
		Resource:     domain.ResourceRef{Class: d.ResourceClass},
		Participants: participants,
		Payment:      create_booking.PaymentPreference(d.Payment),
	}

	switch {
	case d.ResourceClass == domain.ClassSimulator:
		if d.Date == "" || d.StartTime.IsZero() || d.Lane == 0 || d.DurationMinutes == 0 {
			return nil, ErrSessionCorrupted
		}
		date, err := time.ParseInLocation(domain.DateFormat, d.Date, domain.VenueLocation)
		if err != nil {
			return nil, ErrSessionCorrupted
		}
		req.Simulator = &create_booking.SimulatorSelection{
			Lane:            d.Lane,
			Date:            date,
			StartTime:       d.StartTime,
			DurationMinutes: d.DurationMinutes,
		}

	case d.ResourceClass == domain.ClassInstructor:
		if d.InstructorSlotID == 0 {
			return nil, ErrSessionCorrupted
		}
		req.Resource.ID = d.InstructorSlotID

	case d.PrivateGroup:
		if d.InstructorSlotID == 0 {
			return nil, ErrSessionCorrupted
		}
		req.PrivateGroup = &create_booking.PrivateGroupSpec{
			InstructorSlotID: d.InstructorSlotID,
			SkillLevel:       minSkill(d.Participants),
		}

	default:
		if d.GroupSessionID == 0 {
			return nil, ErrSessionCorrupted
		}
		req.Resource.ID = d.GroupSessionID
	}

	return req, nil
}

// executeCreate выполняет транзактор с одним повтором при сбое сериализации
func (c *Controller) executeCreate(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error) {
	resp, err := c.creator.Execute(ctx, req)
	if err != nil && errors.Is(err, txmanager.ErrSerialization) {
		c.logger.Warn("executeCreate: serialization failure, retrying once")
		time.Sleep(serializationRetryDelay)
		resp, err = c.creator.Execute(ctx, req)
	}
	return resp, err
}

// ---- Мои бронирования / отмена ----

func (c *Controller) myBookings(ctx context.Context, session *Session, client *domain.Client) *Reply {
	list, err := c.bookings.ListByClient(ctx, client.ID, false)
	if err != nil {
		c.logger.Error("myBookings: failed to list bookings: %v", err)
		return serviceUnavailableReply()
	}

	if len(list) == 0 {
		return &Reply{Text: "У вас нет активных бронирований."}
	}

	var b strings.Builder
	b.WriteString("Ваши бронирования:\n")
	for _, booking := range list {
		b.WriteString(formatBookingLine(booking))
	}
	return &Reply{Text: b.String()}
}

func (c *Controller) startCancellation(ctx context.Context, session *Session, client *domain.Client) *Reply {
	list, err := c.bookings.ListByClient(ctx, client.ID, false)
	if err != nil {
		c.logger.Error("startCancellation: failed to list bookings: %v", err)
		return serviceUnavailableReply()
	}

	if len(list) == 0 {
		return &Reply{Text: "У вас нет активных бронирований, отменять нечего."}
	}

	session.Reset()
	session.Data.BookingIDs = make([]int64, 0, len(list))
	options := make([]string, 0, len(list))
	for i, booking := range list {
		session.Data.BookingIDs = append(session.Data.BookingIDs, booking.ID)
		options = append(options, fmt.Sprintf("%d. %s", i+1, strings.TrimSuffix(formatBookingLine(booking), "\n")))
	}

	session.Step = StepCancelChoose
	return &Reply{Text: "Какое бронирование отменить?", Options: options}
}

func (c *Controller) handleCancelChoose(session *Session, text string) *Reply {
	if len(session.Data.BookingIDs) == 0 {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, len(session.Data.BookingIDs))
	if !ok {
		return reprompt(&Reply{Text: "Выберите бронирование из списка."})
	}

	session.Data.CancelID = session.Data.BookingIDs[choice-1]
	session.Step = StepCancelConfirm
	return &Reply{
		Text:    fmt.Sprintf("Отменяем бронирование №%d? Оплата вернется тем же способом.", session.Data.CancelID),
		Options: []string{"1. Да, отменить", "2. Нет"},
	}
}

func (c *Controller) handleCancelConfirm(ctx context.Context, session *Session, text string) *Reply {
	if session.Data.CancelID == 0 {
		return c.resetCorrupted(session)
	}

	choice, ok := parseChoice(text, 2)
	if !ok && !strings.EqualFold(strings.TrimSpace(text), "да") {
		return reprompt(&Reply{Text: "Подтвердите отмену.", Options: []string{"1. Да, отменить", "2. Нет"}})
	}
	if ok && choice == 2 {
		session.Reset()
		return &Reply{Text: "Хорошо, бронирование остается в силе."}
	}

	req := &cancel_booking.Request{ClientID: session.Data.ClientID, BookingID: session.Data.CancelID}

	resp, err := c.canceller.Execute(ctx, req)
	if err != nil && errors.Is(err, txmanager.ErrSerialization) {
		c.logger.Warn("handleCancelConfirm: serialization failure, retrying once")
		time.Sleep(serializationRetryDelay)
		resp, err = c.canceller.Execute(ctx, req)
	}
	if err != nil {
		reply := &Reply{Text: cancelErrorText(err)}
		session.Reset()
		return reply
	}

	session.Reset()
	if resp.RefundAmount > 0 {
		return &Reply{Text: fmt.Sprintf("Бронирование №%d отменено, %.0f руб вернулись на кошелёк.", resp.BookingID, resp.RefundAmount)}
	}
	if resp.RefundMethod == domain.PaymentSubscription {
		return &Reply{Text: fmt.Sprintf("Бронирование №%d отменено, занятие вернулось на абонемент.", resp.BookingID)}
	}
	return &Reply{Text: fmt.Sprintf("Бронирование №%d отменено.", resp.BookingID)}
}

// ---- Баланс ----

func (c *Controller) balance(ctx context.Context, session *Session, client *domain.Client) *Reply {
	statement, err := c.wallet.GetStatement(ctx, client.ID, 5)
	if err != nil {
		c.logger.Error("balance: failed to get statement: %v", err)
		return serviceUnavailableReply()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Баланс: %.0f руб (кошелёк %s)\n", statement.Wallet.Balance, statement.Wallet.Number))
	if len(statement.Entries) > 0 {
		b.WriteString("Последние операции:\n")
		for _, e := range statement.Entries {
			b.WriteString(fmt.Sprintf("%+.0f %s\n", e.Signed(), e.Description))
		}
	}
	return &Reply{Text: b.String()}
}

// ---- Вспомогательные ----

// allowsMultipleParticipants несколько участников допустимы только
// в групповых тренировках
func (c *Controller) allowsMultipleParticipants(session *Session) bool {
	return session.Data.ResourceClass == domain.ClassGroup
}

func (c *Controller) resetCorrupted(session *Session) *Reply {
	c.logger.Warn("session corrupted at step %q for tg_user=%d", session.Step, session.TgUserID)
	session.Reset()
	return &Reply{Text: "Данные диалога устарели, начнем сначала. Напишите /menu."}
}

func (c *Controller) noOptionsOnDate(session *Session) *Reply {
	session.Step = StepChooseDate
	return &Reply{Text: "На эту дату вариантов не осталось. Выберите другую дату из списка."}
}

func serviceUnavailableReply() *Reply {
	return &Reply{Text: "Сервис временно недоступен, попробуйте еще раз чуть позже."}
}

func reprompt(r *Reply) *Reply {
	r.Text = "Не понял вас. " + r.Text
	return r
}

// parseChoice разбирает ответ-номер из списка вариантов (1-based)
func parseChoice(text string, max int) (int, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "."))
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

func minSkill(participants []ParticipantDraft) int {
	min := domain.MaxSkillLevel
	for _, p := range participants {
		if p.SkillLevel < min {
			min = p.SkillLevel
		}
	}
	if min < domain.MinSkillLevel {
		return domain.MinSkillLevel
	}
	return min
}

func classLabel(d SessionData) string {
	switch {
	case d.ResourceClass == domain.ClassSimulator:
		return fmt.Sprintf("тренажёр, %d минут", d.DurationMinutes)
	case d.ResourceClass == domain.ClassInstructor:
		return "инструктор на склоне"
	case d.PrivateGroup:
		return "своя группа с инструктором"
	default:
		return "групповая тренировка"
	}
}

func audienceLabel(a domain.Audience) string {
	if a == domain.AudienceChildren {
		return "детская"
	}
	return "взрослая"
}

func paymentLabel(m domain.PaymentMethod) string {
	if m == domain.PaymentSubscription {
		return "абонемент"
	}
	return "кошелёк"
}

func formatBookingLine(b *domain.Booking) string {
	return fmt.Sprintf("№%d: %s %s, %s, %.0f руб\n",
		b.ID, b.Date.Format(domain.DateFormat), b.StartTime, resourceLabel(b.ResourceClass), b.Price)
}

func resourceLabel(class domain.ResourceClass) string {
	switch class {
	case domain.ClassSimulator:
		return "тренажёр"
	case domain.ClassInstructor:
		return "инструктор"
	default:
		return "группа"
	}
}

// bookingErrorText переводит ошибки транзактора в понятный клиенту ответ
// с действием: пополнить баланс, выбрать другую дату или участника
func bookingErrorText(err error) string {
	switch {
	case errors.Is(err, create_booking.ErrSlotNotAvailable):
		return "Увы, этот слот только что заняли. Выберите другое время: /book"
	case errors.Is(err, create_booking.ErrCapacityExceeded):
		return "В группе не осталось мест. Выберите другую группу: /book"
	case errors.Is(err, create_booking.ErrInsufficientFunds):
		return "На кошельке не хватает средств. Пополните баланс и попробуйте снова."
	case errors.Is(err, create_booking.ErrNoSubscription):
		return "У вас нет активного абонемента. Выберите оплату кошельком."
	case errors.Is(err, create_booking.ErrSubscriptionExhausted):
		return "Занятия на абонементе закончились. Выберите оплату кошельком."
	case errors.Is(err, create_booking.ErrSubscriptionExpired):
		return "Срок действия абонемента истек. Выберите оплату кошельком."
	case errors.Is(err, create_booking.ErrSubscriptionNotAllowed):
		return "Эту тренировку нельзя оплатить абонементом. Выберите оплату кошельком."
	case errors.Is(err, create_booking.ErrDateInPast):
		return "Эта дата уже прошла. Выберите другую дату: /book"
	case errors.Is(err, create_booking.ErrDateBeyondHorizon):
		return "Расписание на эту дату еще не опубликовано. Выберите дату поближе: /book"
	case errors.Is(err, create_booking.ErrSkillTooLow):
		return "Уровень подготовки участника не подходит для этой тренировки."
	case errors.Is(err, create_booking.ErrAgeNotEligible):
		return "Возраст участника не подходит для этой группы. Выберите другого участника."
	default:
		return "Не получилось оформить бронирование, попробуйте еще раз позже."
	}
}

func cancelErrorText(err error) string {
	switch {
	case errors.Is(err, cancel_booking.ErrBookingNotFound):
		return "Такое бронирование не найдено."
	case errors.Is(err, cancel_booking.ErrAlreadyCancelled):
		return "Это бронирование уже отменено."
	default:
		return "Не получилось отменить бронирование, попробуйте еще раз позже."
	}
}
