package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	bookingRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/booking"
	walletSvc "github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// UseCase use case для отмены бронирования
type UseCase struct {
	bookingRepo      BookingRepository
	clientRepo       ClientRepository
	scheduleRepo     ScheduleRepository
	groupSessionRepo GroupSessionRepository
	walletService    WalletService
	notifyClient     NotifyServiceClient
	txManager        TransactionManager
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	clientRepo ClientRepository,
	scheduleRepo ScheduleRepository,
	groupSessionRepo GroupSessionRepository,
	walletService WalletService,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:      bookingRepo,
		clientRepo:       clientRepo,
		scheduleRepo:     scheduleRepo,
		groupSessionRepo: groupSessionRepo,
		walletService:    walletService,
		notifyClient:     notifyClient,
		txManager:        txManager,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case отмены бронирования
// Возврат оплаты, освобождение ресурса и смена статуса выполняются
// в одной сериализуемой транзакции: либо всё, либо ничего
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelBooking: client=%d, booking=%d", req.ClientID, req.BookingID)

	// 1. Валидация входных данных
	if req.ClientID <= 0 {
		return nil, fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	var (
		cancelled    *domain.Booking
		refundAmount float64
	)

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Блокируем бронь (FOR UPDATE) и проверяем принадлежность
		b, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("CancelBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("CancelBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// Чужая бронь неотличима от несуществующей
		if b.ClientID != req.ClientID {
			uc.logger.Warn("CancelBooking: booking id=%d belongs to another client", req.BookingID)
			return ErrBookingNotFound
		}

		if b.IsCancelled() {
			uc.logger.Warn("CancelBooking: booking id=%d is already cancelled", req.BookingID)
			return ErrAlreadyCancelled
		}

		// 3.2. Возвращаем оплату: ровно то, что было списано
		refundAmount, err = uc.refund(txCtx, b, now)
		if err != nil {
			return err
		}

		// 3.3. Освобождаем ресурс и закрываем бронь
		switch b.ResourceClass {
		case domain.ClassSimulator:
			err = uc.releaseSimulator(txCtx, b)
		case domain.ClassInstructor:
			err = uc.releaseInstructor(txCtx, b)
		case domain.ClassGroup:
			err = uc.releaseGroupSeat(txCtx, b)
		default:
			err = fmt.Errorf("%w: unknown resource class %q", ErrInternal, b.ResourceClass)
		}
		if err != nil {
			return err
		}

		cancelled = b
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CancelBooking: successfully cancelled booking id=%d, refund=%.2f via %s",
		cancelled.ID, refundAmount, cancelled.PaymentMethod)

	// 4. Уведомляем клиента в фоне
	uc.notifyCancellation(ctx, cancelled)

	return &Response{
		BookingID:    cancelled.ID,
		RefundMethod: cancelled.PaymentMethod,
		RefundAmount: refundAmount,
	}, nil
}

// refund возвращает списанную оплату
// Кошелёк: компенсирующая запись журнала на точную сумму брони
// Абонемент: возврат занятия; истекший по сроку абонемент не реактивируется
func (uc *UseCase) refund(ctx context.Context, b *domain.Booking, now time.Time) (float64, error) {
	if b.PaymentMethod == domain.PaymentSubscription {
		if _, err := uc.walletService.ReturnSessionByBooking(ctx, b.ID, now); err != nil {
			if errors.Is(err, walletSvc.ErrUsageNotFound) {
				// Занятие уже возвращено или не списывалось
				uc.logger.Warn("CancelBooking: no subscription usage for booking id=%d", b.ID)
				return 0, nil
			}
			uc.logger.Error("CancelBooking: failed to return subscription session for booking id=%d: %v", b.ID, err)
			return 0, fmt.Errorf("%w: failed to return subscription session: %v", ErrInternal, err)
		}
		return 0, nil
	}

	if b.Price <= 0 {
		return 0, nil
	}

	description := fmt.Sprintf("Возврат за бронирование №%d", b.ID)
	if _, err := uc.walletService.Credit(ctx, b.ClientID, b.Price, description); err != nil {
		uc.logger.Error("CancelBooking: failed to credit wallet for booking id=%d: %v", b.ID, err)
		return 0, fmt.Errorf("%w: failed to credit wallet: %v", ErrInternal, err)
	}

	return b.Price, nil
}

// releaseSimulator освобождает слоты тренажёра
// Индивидуальные брони тренажёра хранятся в legacy-представлении:
// запись удаляется целиком, а не переводится в статус cancelled
func (uc *UseCase) releaseSimulator(ctx context.Context, b *domain.Booking) error {
	startTimes, err := slotGridTimes(b.StartTime, b.DurationMinutes)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to rebuild slot grid for booking id=%d: %v", b.ID, err)
		return fmt.Errorf("%w: failed to rebuild slot grid: %v", ErrInternal, err)
	}

	slots, err := uc.scheduleRepo.GetSimulatorRange(ctx, int(b.ResourceID), b.Date, startTimes)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to get simulator range for booking id=%d: %v", b.ID, err)
		return fmt.Errorf("%w: failed to get simulator slots: %v", ErrInternal, err)
	}

	slotIDs := make([]int64, 0, len(slots))
	for _, slot := range slots {
		slotIDs = append(slotIDs, slot.ID)
	}

	if len(slotIDs) > 0 {
		if err := uc.scheduleRepo.MarkSimulatorSlots(ctx, slotIDs, false); err != nil {
			uc.logger.Error("CancelBooking: failed to free simulator slots for booking id=%d: %v", b.ID, err)
			return fmt.Errorf("%w: failed to free simulator slots: %v", ErrInternal, err)
		}
	}

	if err := uc.bookingRepo.Delete(ctx, b.ID); err != nil {
		uc.logger.Error("CancelBooking: failed to delete booking id=%d: %v", b.ID, err)
		return fmt.Errorf("%w: failed to delete booking: %v", ErrInternal, err)
	}

	return nil
}

// releaseInstructor возвращает слот инструктора в расписание
func (uc *UseCase) releaseInstructor(ctx context.Context, b *domain.Booking) error {
	if err := uc.scheduleRepo.UpdateInstructorSlotStatus(ctx, b.ResourceID, domain.SlotAvailable); err != nil {
		uc.logger.Error("CancelBooking: failed to free instructor slot id=%d: %v", b.ResourceID, err)
		return fmt.Errorf("%w: failed to free instructor slot: %v", ErrInternal, err)
	}

	if err := uc.bookingRepo.Cancel(ctx, b.ID); err != nil {
		uc.logger.Error("CancelBooking: failed to cancel booking id=%d: %v", b.ID, err)
		return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
	}

	return nil
}

// releaseGroupSeat освобождает места в групповой тренировке
// Частная ad-hoc группа отменяется целиком, её слот инструктора
// освобождается безусловно - других бронирований в ней нет
func (uc *UseCase) releaseGroupSeat(ctx context.Context, b *domain.Booking) error {
	session, err := uc.groupSessionRepo.GetByID(ctx, b.ResourceID)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to get group session id=%d: %v", b.ResourceID, err)
		return fmt.Errorf("%w: failed to get group session: %v", ErrInternal, err)
	}

	if err := uc.bookingRepo.Cancel(ctx, b.ID); err != nil {
		uc.logger.Error("CancelBooking: failed to cancel booking id=%d: %v", b.ID, err)
		return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
	}

	if session.Private {
		if err := uc.groupSessionRepo.UpdateStatus(ctx, session.ID, domain.GroupCancelled); err != nil {
			uc.logger.Error("CancelBooking: failed to cancel private group id=%d: %v", session.ID, err)
			return fmt.Errorf("%w: failed to cancel private group: %v", ErrInternal, err)
		}

		if session.InstructorSlotID != nil {
			if err := uc.scheduleRepo.UpdateInstructorSlotStatus(ctx, *session.InstructorSlotID, domain.SlotAvailable); err != nil {
				uc.logger.Error("CancelBooking: failed to free instructor slot id=%d: %v", *session.InstructorSlotID, err)
				return fmt.Errorf("%w: failed to free instructor slot: %v", ErrInternal, err)
			}
		}

		return nil
	}

	// Счётчик-кэш пересчитывается по активным броням уже после отмены
	active, err := uc.bookingRepo.CountActiveParticipants(ctx, domain.ClassGroup, session.ID)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to count participants for session=%d: %v", session.ID, err)
		return fmt.Errorf("%w: failed to count participants: %v", ErrInternal, err)
	}

	if err := uc.groupSessionRepo.UpdateCurrentParticipants(ctx, session.ID, active); err != nil {
		uc.logger.Error("CancelBooking: failed to update participants counter for session=%d: %v", session.ID, err)
		return fmt.Errorf("%w: failed to update participants counter: %v", ErrInternal, err)
	}

	// Ушел последний активный участник - подложенный слот инструктора
	// возвращается в расписание
	if active == 0 && session.InstructorSlotID != nil {
		if err := uc.scheduleRepo.UpdateInstructorSlotStatus(ctx, *session.InstructorSlotID, domain.SlotAvailable); err != nil {
			uc.logger.Error("CancelBooking: failed to free instructor slot id=%d: %v", *session.InstructorSlotID, err)
			return fmt.Errorf("%w: failed to free instructor slot: %v", ErrInternal, err)
		}
	}

	return nil
}

func (uc *UseCase) notifyCancellation(ctx context.Context, b *domain.Booking) {
	client, err := uc.clientRepo.GetByID(ctx, b.ClientID)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to get client id=%d for notification: %v", b.ClientID, err)
		return
	}

	uc.notifyClient.SendAsync(&notifyservice.Notification{
		TgUserID:  client.TgUserID,
		Event:     notifyservice.EventBookingCancelled,
		BookingID: b.ID,
		Message: fmt.Sprintf("Бронирование №%d на %s %s отменено",
			b.ID, b.Date.Format(domain.DateFormat), b.StartTime),
	})
}

// slotGridTimes возвращает времена начала слотов, покрывавших тренировку
func slotGridTimes(start types.TimeString, durationMinutes int) ([]types.TimeString, error) {
	count := durationMinutes / domain.SimulatorSlotMinutes
	times := make([]types.TimeString, 0, count)

	current := start
	for i := 0; i < count; i++ {
		times = append(times, current)
		next, err := current.AddMinutes(domain.SimulatorSlotMinutes)
		if err != nil {
			if i == count-1 {
				break
			}
			return nil, err
		}
		current = next
	}

	if len(times) != count {
		return nil, fmt.Errorf("%d minutes does not fit into the day", durationMinutes)
	}

	return times, nil
}
