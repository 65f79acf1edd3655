package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/pricingservice"
	clientRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/client"
	groupRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/groupsession"
	scheduleRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/schedule"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/eligibility"
	walletSvc "github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// UseCase use case для создания бронирования
type UseCase struct {
	clientRepo       ClientRepository
	scheduleRepo     ScheduleRepository
	groupSessionRepo GroupSessionRepository
	bookingRepo      BookingRepository
	walletService    WalletService
	pricingClient    PricingServiceClient
	notifyClient     NotifyServiceClient
	policy           SubscriptionPolicy
	txManager        TransactionManager
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	clientRepo ClientRepository,
	scheduleRepo ScheduleRepository,
	groupSessionRepo GroupSessionRepository,
	bookingRepo BookingRepository,
	walletService WalletService,
	pricingClient PricingServiceClient,
	notifyClient NotifyServiceClient,
	policy SubscriptionPolicy,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		clientRepo:       clientRepo,
		scheduleRepo:     scheduleRepo,
		groupSessionRepo: groupSessionRepo,
		bookingRepo:      bookingRepo,
		walletService:    walletService,
		pricingClient:    pricingClient,
		notifyClient:     notifyClient,
		policy:           policy,
		txManager:        txManager,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка занятости, списание оплаты и запись брони выполняются в одной
// сериализуемой транзакции: при гонке за последнее место выигрывает
// ровно один клиент
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%d, class=%s, resource=%d, participants=%d, payment=%s",
		req.ClientID, req.Resource.Class, req.Resource.ID, len(req.Participants), req.Payment)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем клиента
	client, err := uc.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			uc.logger.Warn("CreateBooking: client id=%d not found", req.ClientID)
			return nil, ErrClientNotFound
		}
		uc.logger.Error("CreateBooking: failed to get client id=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: failed to get client: %v", ErrInternal, err)
	}

	// 4. Материализуем участников: данные иждивенцев берутся из их записей
	participants, err := uc.loadParticipants(ctx, client, req.Participants, now)
	if err != nil {
		return nil, err
	}

	// 5. Рассчитываем стоимость через PricingService (для групповых тренировок
	// цена берется из самой группы внутри транзакции)
	price, err := uc.quotePrice(ctx, req)
	if err != nil {
		return nil, err
	}

	// Переменная для хранения результата
	var result *domain.Booking

	// 6. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var txErr error

		switch req.Resource.Class {
		case domain.ClassSimulator:
			result, txErr = uc.bookSimulator(txCtx, req, client, participants, now, price)
		case domain.ClassInstructor:
			result, txErr = uc.bookInstructor(txCtx, req, client, participants, now, price)
		case domain.ClassGroup:
			if req.PrivateGroup != nil {
				result, txErr = uc.bookPrivateGroup(txCtx, req, client, participants, now, price)
			} else {
				result, txErr = uc.bookGroupSession(txCtx, req, client, participants, now)
			}
		default:
			txErr = fmt.Errorf("%w: unknown resource class %q", ErrInvalidInput, req.Resource.Class)
		}

		return txErr
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, price=%.2f, payment=%s",
		result.ID, result.Price, result.PaymentMethod)

	// 7. Уведомляем клиента в фоне, исход брони от уведомления не зависит
	uc.notifyClient.SendAsync(&notifyservice.Notification{
		TgUserID:  client.TgUserID,
		Event:     notifyservice.EventBookingCreated,
		BookingID: result.ID,
		Message: fmt.Sprintf("Бронирование №%d на %s %s подтверждено",
			result.ID, result.Date.Format(domain.DateFormat), result.StartTime),
	})

	return buildResponse(result), nil
}

// bookSimulator бронирует подряд идущие слоты дорожки тренажёра
func (uc *UseCase) bookSimulator(ctx context.Context, req *Request, client *domain.Client, participants []domain.Participant, now time.Time, price float64) (*domain.Booking, error) {
	sel := req.Simulator

	// Горизонт бронирования тренажёра задается настройками расписания
	horizon, err := uc.scheduleHorizon(ctx)
	if err != nil {
		return nil, err
	}
	if err := eligibility.CheckDate(sel.Date, now, horizon); err != nil {
		uc.logger.Warn("CreateBooking: date check failed: %v", err)
		return nil, mapEligibilityErr(err)
	}

	startTimes, err := slotGridTimes(sel.StartTime, sel.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: training does not fit into the day: %v", ErrInvalidInput, err)
	}

	// Блокируем слоты (FOR UPDATE) и проверяем, что вся цепочка свободна
	slots, err := uc.scheduleRepo.GetSimulatorRange(ctx, sel.Lane, sel.Date, startTimes)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get simulator range: %v", err)
		return nil, fmt.Errorf("%w: failed to get simulator slots: %v", ErrInternal, err)
	}
	if len(slots) != len(startTimes) {
		uc.logger.Warn("CreateBooking: simulator range incomplete, lane=%d, want=%d, got=%d",
			sel.Lane, len(startTimes), len(slots))
		return nil, ErrSlotNotAvailable
	}
	slotIDs := make([]int64, 0, len(slots))
	for _, slot := range slots {
		if slot.Booked {
			uc.logger.Warn("CreateBooking: simulator slot lane=%d time=%s already booked", sel.Lane, slot.StartTime)
			return nil, ErrSlotNotAvailable
		}
		slotIDs = append(slotIDs, slot.ID)
	}

	// Скилл-проверок на тренажёре нет, допуск определяется только датой

	method, subscription, err := uc.resolvePayment(ctx, req, price)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ClientID:        client.ID,
		ResourceClass:   domain.ClassSimulator,
		ResourceID:      int64(sel.Lane),
		Date:            sel.Date,
		StartTime:       sel.StartTime,
		DurationMinutes: sel.DurationMinutes,
		Price:           price,
		PaymentMethod:   method,
		Status:          domain.BookingConfirmed,
		Participants:    toSnapshots(participants),
	}

	created, err := uc.createAndCharge(ctx, booking, subscription, now)
	if err != nil {
		return nil, err
	}

	if err := uc.scheduleRepo.MarkSimulatorSlots(ctx, slotIDs, true); err != nil {
		uc.logger.Error("CreateBooking: failed to mark simulator slots: %v", err)
		return nil, fmt.Errorf("%w: failed to mark simulator slots: %v", ErrInternal, err)
	}

	return created, nil
}

// bookInstructor бронирует слот инструктора на естественном склоне
func (uc *UseCase) bookInstructor(ctx context.Context, req *Request, client *domain.Client, participants []domain.Participant, now time.Time, price float64) (*domain.Booking, error) {
	slot, err := uc.lockInstructorSlot(ctx, req.Resource.ID)
	if err != nil {
		return nil, err
	}

	if err := eligibility.CheckDate(slot.Date, now, nil); err != nil {
		uc.logger.Warn("CreateBooking: date check failed: %v", err)
		return nil, mapEligibilityErr(err)
	}

	method, subscription, err := uc.resolvePayment(ctx, req, price)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ClientID:        client.ID,
		ResourceClass:   domain.ClassInstructor,
		ResourceID:      slot.ID,
		Date:            slot.Date,
		StartTime:       slot.StartTime,
		DurationMinutes: slot.DurationMinutes,
		Sport:           &slot.Sport,
		Price:           price,
		PaymentMethod:   method,
		Status:          domain.BookingConfirmed,
		Participants:    toSnapshots(participants),
	}

	created, err := uc.createAndCharge(ctx, booking, subscription, now)
	if err != nil {
		return nil, err
	}

	if err := uc.scheduleRepo.UpdateInstructorSlotStatus(ctx, slot.ID, domain.SlotBooked); err != nil {
		uc.logger.Error("CreateBooking: failed to mark instructor slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: failed to mark instructor slot: %v", ErrInternal, err)
	}

	return created, nil
}

// bookGroupSession записывает участников в существующую групповую тренировку
// Занятость пересчитывается по активным броням под блокировкой строки группы
func (uc *UseCase) bookGroupSession(ctx context.Context, req *Request, client *domain.Client, participants []domain.Participant, now time.Time) (*domain.Booking, error) {
	session, err := uc.groupSessionRepo.GetByID(ctx, req.Resource.ID)
	if err != nil {
		if errors.Is(err, groupRepo.ErrSessionNotFound) {
			uc.logger.Warn("CreateBooking: group session id=%d not found", req.Resource.ID)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get group session id=%d: %v", req.Resource.ID, err)
		return nil, fmt.Errorf("%w: failed to get group session: %v", ErrInternal, err)
	}

	// Отмененные и частные группы для записи со стороны не существуют
	if !session.IsActive() || session.Private {
		uc.logger.Warn("CreateBooking: group session id=%d is not open for booking", session.ID)
		return nil, ErrResourceNotFound
	}

	if err := eligibility.CheckDate(session.Date, now, nil); err != nil {
		uc.logger.Warn("CreateBooking: date check failed: %v", err)
		return nil, mapEligibilityErr(err)
	}

	// Допуск каждого участника: уровень подготовки и возрастная аудитория
	for _, p := range participants {
		if err := eligibility.CheckParticipant(p, session); err != nil {
			uc.logger.Warn("CreateBooking: participant %q not eligible: %v", p.Name, err)
			return nil, mapEligibilityErr(err)
		}
	}

	// Пересчитываем занятость по активным броням, счётчику-кэшу не доверяем
	active, err := uc.bookingRepo.CountActiveParticipants(ctx, domain.ClassGroup, session.ID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to count participants for session=%d: %v", session.ID, err)
		return nil, fmt.Errorf("%w: failed to count participants: %v", ErrInternal, err)
	}

	if session.FreeSeats(active) < len(participants) {
		uc.logger.Warn("CreateBooking: session=%d has %d free seats, requested %d",
			session.ID, session.FreeSeats(active), len(participants))
		return nil, ErrCapacityExceeded
	}

	price := session.Price * float64(len(participants))

	method, subscription, err := uc.resolvePayment(ctx, req, price)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ClientID:        client.ID,
		ResourceClass:   domain.ClassGroup,
		ResourceID:      session.ID,
		Date:            session.Date,
		StartTime:       session.StartTime,
		DurationMinutes: session.DurationMinutes,
		Sport:           &session.Sport,
		Price:           price,
		PaymentMethod:   method,
		Status:          domain.BookingConfirmed,
		Participants:    toSnapshots(participants),
	}

	created, err := uc.createAndCharge(ctx, booking, subscription, now)
	if err != nil {
		return nil, err
	}

	if err := uc.groupSessionRepo.UpdateCurrentParticipants(ctx, session.ID, active+len(participants)); err != nil {
		uc.logger.Error("CreateBooking: failed to update participants counter for session=%d: %v", session.ID, err)
		return nil, fmt.Errorf("%w: failed to update participants counter: %v", ErrInternal, err)
	}

	return created, nil
}

// bookPrivateGroup создает частную ad-hoc группу на свободном слоте
// инструктора и бронирует её целиком
func (uc *UseCase) bookPrivateGroup(ctx context.Context, req *Request, client *domain.Client, participants []domain.Participant, now time.Time, price float64) (*domain.Booking, error) {
	spec := req.PrivateGroup

	slot, err := uc.lockInstructorSlot(ctx, spec.InstructorSlotID)
	if err != nil {
		return nil, err
	}

	if err := eligibility.CheckDate(slot.Date, now, nil); err != nil {
		uc.logger.Warn("CreateBooking: date check failed: %v", err)
		return nil, mapEligibilityErr(err)
	}

	for _, p := range participants {
		if err := eligibility.CheckSkill(p.SkillLevel, spec.SkillLevel); err != nil {
			uc.logger.Warn("CreateBooking: participant %q skill check failed: %v", p.Name, err)
			return nil, mapEligibilityErr(err)
		}
	}

	maxParticipants := spec.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = len(participants)
	}

	session := &domain.GroupSession{
		Date:                slot.Date,
		StartTime:           slot.StartTime,
		DurationMinutes:     slot.DurationMinutes,
		Sport:               slot.Sport,
		SkillLevel:          spec.SkillLevel,
		Audience:            audienceFor(participants),
		MaxParticipants:     maxParticipants,
		CurrentParticipants: len(participants),
		Private:             true,
		Status:              domain.GroupActive,
		Price:               price / float64(len(participants)),
		InstructorSlotID:    &slot.ID,
	}

	session, err = uc.groupSessionRepo.Create(ctx, session)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to create private group: %v", err)
		return nil, fmt.Errorf("%w: failed to create private group: %v", ErrInternal, err)
	}

	if err := uc.scheduleRepo.UpdateInstructorSlotStatus(ctx, slot.ID, domain.SlotBooked); err != nil {
		uc.logger.Error("CreateBooking: failed to mark instructor slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: failed to mark instructor slot: %v", ErrInternal, err)
	}

	method, subscription, err := uc.resolvePayment(ctx, req, price)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ClientID:        client.ID,
		ResourceClass:   domain.ClassGroup,
		ResourceID:      session.ID,
		Date:            session.Date,
		StartTime:       session.StartTime,
		DurationMinutes: session.DurationMinutes,
		Sport:           &session.Sport,
		Price:           price,
		PaymentMethod:   method,
		Status:          domain.BookingConfirmed,
		Participants:    toSnapshots(participants),
	}

	return uc.createAndCharge(ctx, booking, subscription, now)
}

// createAndCharge сохраняет бронь и списывает оплату в текущей транзакции
func (uc *UseCase) createAndCharge(ctx context.Context, booking *domain.Booking, subscription *domain.Subscription, now time.Time) (*domain.Booking, error) {
	created, err := uc.bookingRepo.Create(ctx, booking)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to create booking: %v", err)
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	switch {
	case created.PaymentMethod == domain.PaymentSubscription:
		if _, err := uc.walletService.ConsumeSession(ctx, subscription.ID, created.ID, now); err != nil {
			return nil, uc.mapWalletErr("consume session", err)
		}
	case created.Price > 0:
		description := fmt.Sprintf("Оплата бронирования №%d", created.ID)
		if _, err := uc.walletService.Debit(ctx, created.ClientID, created.Price, description); err != nil {
			return nil, uc.mapWalletErr("debit wallet", err)
		}
	}

	return created, nil
}

// resolvePayment определяет способ оплаты по пожеланию клиента
// Абонемент применим только к разрешенным классам ресурсов
// и индивидуальным (один участник) тренировкам
func (uc *UseCase) resolvePayment(ctx context.Context, req *Request, price float64) (domain.PaymentMethod, *domain.Subscription, error) {
	subscriptionAllowed := uc.policy.SubscriptionAllowedFor(req.Resource.Class) &&
		len(req.Participants) == 1 && price > 0

	switch req.Payment {
	case PaymentWallet:
		return domain.PaymentWallet, nil, nil

	case PaymentSubscription:
		if !subscriptionAllowed {
			uc.logger.Warn("CreateBooking: subscription payment not allowed for class=%s, participants=%d",
				req.Resource.Class, len(req.Participants))
			return "", nil, ErrSubscriptionNotAllowed
		}
		sub, err := uc.walletService.GetActiveSubscription(ctx, req.ClientID)
		if err != nil {
			if errors.Is(err, walletSvc.ErrSubscriptionNotFound) {
				return "", nil, ErrNoSubscription
			}
			return "", nil, uc.mapWalletErr("get subscription", err)
		}
		return domain.PaymentSubscription, sub, nil

	default: // PaymentAuto
		if !subscriptionAllowed {
			return domain.PaymentWallet, nil, nil
		}
		sub, err := uc.walletService.GetActiveSubscription(ctx, req.ClientID)
		if err != nil {
			if errors.Is(err, walletSvc.ErrSubscriptionNotFound) {
				return domain.PaymentWallet, nil, nil
			}
			return "", nil, uc.mapWalletErr("get subscription", err)
		}
		if !sub.CanConsumeAt(uc.timeProvider.Now()) {
			return domain.PaymentWallet, nil, nil
		}
		return domain.PaymentSubscription, sub, nil
	}
}

// quotePrice рассчитывает стоимость через PricingService до открытия
// транзакции. При недоступности сервиса действуют базовые цены
func (uc *UseCase) quotePrice(ctx context.Context, req *Request) (float64, error) {
	switch req.Resource.Class {
	case domain.ClassSimulator:
		sel := req.Simulator
		return uc.quoteOrFallback(ctx, &pricingservice.QuoteRequest{
			ResourceClass:   string(domain.ClassSimulator),
			ResourceID:      int64(sel.Lane),
			DurationMinutes: sel.DurationMinutes,
			Participants:    1,
		}, simulatorFallbackPrice(sel.DurationMinutes))

	case domain.ClassInstructor:
		slot, err := uc.peekInstructorSlot(ctx, req.Resource.ID)
		if err != nil {
			return 0, err
		}
		return uc.quoteOrFallback(ctx, &pricingservice.QuoteRequest{
			ResourceClass:   string(domain.ClassInstructor),
			ResourceID:      slot.ID,
			DurationMinutes: slot.DurationMinutes,
			Participants:    1,
		}, instructorFallbackPrice(slot.DurationMinutes))

	case domain.ClassGroup:
		if req.PrivateGroup == nil {
			// Цена существующей группы хранится в самой группе
			return 0, nil
		}
		slot, err := uc.peekInstructorSlot(ctx, req.PrivateGroup.InstructorSlotID)
		if err != nil {
			return 0, err
		}
		return uc.quoteOrFallback(ctx, &pricingservice.QuoteRequest{
			ResourceClass:   string(domain.ClassGroup),
			ResourceID:      slot.ID,
			DurationMinutes: slot.DurationMinutes,
			Participants:    len(req.Participants),
		}, instructorFallbackPrice(slot.DurationMinutes))

	default:
		return 0, fmt.Errorf("%w: unknown resource class %q", ErrInvalidInput, req.Resource.Class)
	}
}

func (uc *UseCase) quoteOrFallback(ctx context.Context, req *pricingservice.QuoteRequest, fallback float64) (float64, error) {
	quote, err := uc.pricingClient.GetQuoteWithGracefulDegradation(ctx, req)
	if err != nil {
		if errors.Is(err, pricingservice.ErrServiceDegraded) || errors.Is(err, pricingservice.ErrQuoteNotFound) {
			uc.logger.Warn("CreateBooking: using fallback price %.2f for class=%s: %v", fallback, req.ResourceClass, err)
			return fallback, nil
		}
		uc.logger.Error("CreateBooking: failed to get quote: %v", err)
		return 0, fmt.Errorf("%w: failed to get quote: %v", ErrInternal, err)
	}
	return quote.Amount, nil
}

// loadParticipants переводит входных участников в доменные персоны
// Имя, возраст и уровень иждивенца берутся из его записи на момент брони
func (uc *UseCase) loadParticipants(ctx context.Context, client *domain.Client, inputs []ParticipantInput, now time.Time) ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0, len(inputs))

	for _, in := range inputs {
		if in.DependentID == nil {
			participants = append(participants, domain.Participant{
				Name:       in.Name,
				Age:        in.Age,
				SkillLevel: in.SkillLevel,
			})
			continue
		}

		dependent, err := uc.clientRepo.GetDependent(ctx, *in.DependentID)
		if err != nil {
			if errors.Is(err, clientRepo.ErrDependentNotFound) {
				uc.logger.Warn("CreateBooking: dependent id=%d not found", *in.DependentID)
				return nil, ErrDependentNotFound
			}
			uc.logger.Error("CreateBooking: failed to get dependent id=%d: %v", *in.DependentID, err)
			return nil, fmt.Errorf("%w: failed to get dependent: %v", ErrInternal, err)
		}

		// Чужой иждивенец неотличим от несуществующего
		if dependent.ClientID != client.ID {
			uc.logger.Warn("CreateBooking: dependent id=%d belongs to another client", dependent.ID)
			return nil, ErrDependentNotFound
		}

		participants = append(participants, domain.Participant{
			DependentID: &dependent.ID,
			Name:        dependent.Name,
			Age:         dependent.Age(now),
			SkillLevel:  dependent.SkillLevel,
		})
	}

	return participants, nil
}

// toSnapshots переводит персон в снимки участников брони
func toSnapshots(participants []domain.Participant) []domain.BookingParticipant {
	snapshots := make([]domain.BookingParticipant, 0, len(participants))
	for _, p := range participants {
		snapshots = append(snapshots, domain.BookingParticipant{
			DependentID: p.DependentID,
			Name:        p.Name,
			Age:         p.Age,
		})
	}
	return snapshots
}

// lockInstructorSlot блокирует слот инструктора и проверяет, что он свободен
func (uc *UseCase) lockInstructorSlot(ctx context.Context, id int64) (*domain.InstructorSlot, error) {
	slot, err := uc.scheduleRepo.GetInstructorSlot(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: instructor slot id=%d not found", id)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get instructor slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get instructor slot: %v", ErrInternal, err)
	}

	if !slot.IsAvailable() {
		uc.logger.Warn("CreateBooking: instructor slot id=%d is already booked", id)
		return nil, ErrSlotNotAvailable
	}

	return slot, nil
}

// peekInstructorSlot читает слот вне транзакции для расчёта стоимости
func (uc *UseCase) peekInstructorSlot(ctx context.Context, id int64) (*domain.InstructorSlot, error) {
	slot, err := uc.scheduleRepo.GetInstructorSlot(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: instructor slot id=%d not found", id)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get instructor slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get instructor slot: %v", ErrInternal, err)
	}
	return slot, nil
}

// scheduleHorizon возвращает горизонт расписания тренажёра
// nil означает, что горизонт не задан
func (uc *UseCase) scheduleHorizon(ctx context.Context) (*time.Time, error) {
	maxDate, err := uc.scheduleRepo.GetMaxScheduleDate(ctx)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrMaxDateNotConfigured) {
			return nil, nil
		}
		uc.logger.Error("CreateBooking: failed to get schedule horizon: %v", err)
		return nil, fmt.Errorf("%w: failed to get schedule horizon: %v", ErrInternal, err)
	}
	return &maxDate, nil
}

// mapWalletErr переводит ошибки сервиса кошелька в ошибки usecase
func (uc *UseCase) mapWalletErr(action string, err error) error {
	switch {
	case errors.Is(err, walletSvc.ErrInsufficientFunds):
		uc.logger.Warn("CreateBooking: %s failed: %v", action, err)
		return ErrInsufficientFunds
	case errors.Is(err, walletSvc.ErrSubscriptionExhausted):
		uc.logger.Warn("CreateBooking: %s failed: %v", action, err)
		return ErrSubscriptionExhausted
	case errors.Is(err, walletSvc.ErrSubscriptionExpired):
		uc.logger.Warn("CreateBooking: %s failed: %v", action, err)
		return ErrSubscriptionExpired
	case errors.Is(err, walletSvc.ErrSubscriptionNotFound):
		uc.logger.Warn("CreateBooking: %s failed: %v", action, err)
		return ErrNoSubscription
	default:
		uc.logger.Error("CreateBooking: %s failed: %v", action, err)
		return fmt.Errorf("%w: failed to %s: %v", ErrInternal, action, err)
	}
}

// slotGridTimes возвращает времена начала слотов, покрывающих тренировку
func slotGridTimes(start types.TimeString, durationMinutes int) ([]types.TimeString, error) {
	count := durationMinutes / domain.SimulatorSlotMinutes
	times := make([]types.TimeString, 0, count)

	current := start
	for i := 0; i < count; i++ {
		times = append(times, current)
		next, err := current.AddMinutes(domain.SimulatorSlotMinutes)
		if err != nil {
			if i == count-1 {
				// Последний слот заканчивается ровно в полночь
				break
			}
			return nil, err
		}
		current = next
	}

	if len(times) != count {
		return nil, fmt.Errorf("training of %d minutes does not fit into the day", durationMinutes)
	}

	return times, nil
}

// simulatorFallbackPrice базовая цена тренажёра при недоступности PricingService
func simulatorFallbackPrice(durationMinutes int) float64 {
	slots := durationMinutes / domain.SimulatorSlotMinutes
	return domain.FallbackSimulatorPricePerSlot * float64(slots)
}

// instructorFallbackPrice базовая цена инструктора при недоступности PricingService
func instructorFallbackPrice(durationMinutes int) float64 {
	return domain.FallbackInstructorPricePerHour * float64(durationMinutes) / 60.0
}

// audienceFor определяет возрастную аудиторию частной группы по участникам
// Группа детская, только если все участники младше 18
func audienceFor(participants []domain.Participant) domain.Audience {
	for _, p := range participants {
		if p.IsAdult() {
			return domain.AudienceAdults
		}
	}
	return domain.AudienceChildren
}
