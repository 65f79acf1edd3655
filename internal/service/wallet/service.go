package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	subscriptionRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/subscription"
	walletRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/wallet"
)

// Service сервис кошелька и абонементов
// Владеет финансовой стороной бронирований: баланс, журнал операций,
// списание и возврат занятий абонемента
//
// Все мутации append-only относительно журнала: возврат средств - это
// новая компенсирующая запись, а не правка предыдущей. Баланс кошелька
// всегда равен сумме записей журнала; сам столбец balance - кэш
type Service struct {
	walletRepo       WalletRepository
	subscriptionRepo SubscriptionRepository
	logger           Logger
}

// NewService создает новый экземпляр сервиса кошелька
func NewService(
	walletRepo WalletRepository,
	subscriptionRepo SubscriptionRepository,
	logger Logger,
) *Service {
	return &Service{
		walletRepo:       walletRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// GetBalance возвращает текущий баланс кошелька клиента
func (s *Service) GetBalance(ctx context.Context, clientID int64) (float64, error) {
	w, err := s.getWalletByClient(ctx, clientID, "GetBalance")
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Statement выписка по кошельку: сам кошелёк и последние записи журнала
type Statement struct {
	Wallet  *domain.Wallet
	Entries []*domain.LedgerEntry
}

// GetStatement возвращает выписку по кошельку клиента
func (s *Service) GetStatement(ctx context.Context, clientID int64, limit int) (*Statement, error) {
	w, err := s.getWalletByClient(ctx, clientID, "GetStatement")
	if err != nil {
		return nil, err
	}

	entries, err := s.walletRepo.ListEntries(ctx, w.ID, limit)
	if err != nil {
		s.logger.Error("GetStatement: failed to list entries for wallet=%d: %v", w.ID, err)
		return nil, fmt.Errorf("%w: GetStatement - repository error: %v", ErrInternal, err)
	}

	return &Statement{Wallet: w, Entries: entries}, nil
}

// Debit списывает средства с кошелька клиента
// Баланс перечитывается непосредственно перед списанием - внутри транзакции
// репозиторий блокирует строку кошелька (FOR UPDATE), поэтому два
// конкурентных списания не могут оба пройти по устаревшему балансу
func (s *Service) Debit(ctx context.Context, clientID int64, amount float64, description string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}

	w, err := s.getWalletByClient(ctx, clientID, "Debit")
	if err != nil {
		return nil, err
	}

	if amount > w.Balance {
		s.logger.Warn("Debit: insufficient funds, wallet=%d balance=%.2f amount=%.2f", w.ID, w.Balance, amount)
		return nil, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientFunds, w.Balance, amount)
	}

	entry := &domain.LedgerEntry{
		WalletID:    w.ID,
		Amount:      amount,
		Type:        domain.EntryDebit,
		Description: description,
	}

	created, err := s.walletRepo.InsertEntry(ctx, entry)
	if err != nil {
		s.logger.Error("Debit: failed to insert ledger entry for wallet=%d: %v", w.ID, err)
		return nil, fmt.Errorf("%w: Debit - insert entry: %v", ErrInternal, err)
	}

	if err := s.walletRepo.UpdateBalance(ctx, w.ID, w.Balance-amount); err != nil {
		s.logger.Error("Debit: failed to update balance for wallet=%d: %v", w.ID, err)
		return nil, fmt.Errorf("%w: Debit - update balance: %v", ErrInternal, err)
	}

	s.logger.Info("Debit: wallet=%d amount=%.2f balance=%.2f", w.ID, amount, w.Balance-amount)
	return created, nil
}

// Credit зачисляет средства на кошелёк клиента
// Используется для возвратов и бонусов, потолка нет - всегда успешно
// при существующем кошельке
func (s *Service) Credit(ctx context.Context, clientID int64, amount float64, description string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}

	w, err := s.getWalletByClient(ctx, clientID, "Credit")
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		WalletID:    w.ID,
		Amount:      amount,
		Type:        domain.EntryCredit,
		Description: description,
	}

	created, err := s.walletRepo.InsertEntry(ctx, entry)
	if err != nil {
		s.logger.Error("Credit: failed to insert ledger entry for wallet=%d: %v", w.ID, err)
		return nil, fmt.Errorf("%w: Credit - insert entry: %v", ErrInternal, err)
	}

	if err := s.walletRepo.UpdateBalance(ctx, w.ID, w.Balance+amount); err != nil {
		s.logger.Error("Credit: failed to update balance for wallet=%d: %v", w.ID, err)
		return nil, fmt.Errorf("%w: Credit - update balance: %v", ErrInternal, err)
	}

	s.logger.Info("Credit: wallet=%d amount=%.2f balance=%.2f", w.ID, amount, w.Balance+amount)
	return created, nil
}

// GetActiveSubscription возвращает активный абонемент клиента
func (s *Service) GetActiveSubscription(ctx context.Context, clientID int64) (*domain.Subscription, error) {
	sub, err := s.subscriptionRepo.GetActiveByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		s.logger.Error("GetActiveSubscription: repository error for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: GetActiveSubscription - repository error: %v", ErrInternal, err)
	}
	return sub, nil
}

// ConsumeSession списывает одно занятие с абонемента и связывает
// списание с бронированием
func (s *Service) ConsumeSession(ctx context.Context, subscriptionID, bookingID int64, now time.Time) (*domain.SubscriptionUsage, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		s.logger.Error("ConsumeSession: repository error for subscription=%d: %v", subscriptionID, err)
		return nil, fmt.Errorf("%w: ConsumeSession - repository error: %v", ErrInternal, err)
	}

	if sub.IsExpiredAt(now) {
		s.logger.Warn("ConsumeSession: subscription=%d expired at %s", sub.ID, sub.ExpiresAt.Format(domain.DateFormat))
		return nil, ErrSubscriptionExpired
	}
	if sub.IsExhausted() {
		s.logger.Warn("ConsumeSession: subscription=%d exhausted", sub.ID)
		return nil, ErrSubscriptionExhausted
	}

	remaining := sub.RemainingSessions - 1
	status := domain.SubscriptionActive
	if remaining == 0 {
		// Абонемент исчерпан, но не просрочен - отмена брони может его оживить
		status = domain.SubscriptionInactive
	}

	if err := s.subscriptionRepo.UpdateRemaining(ctx, sub.ID, remaining, status); err != nil {
		s.logger.Error("ConsumeSession: failed to update subscription=%d: %v", sub.ID, err)
		return nil, fmt.Errorf("%w: ConsumeSession - update remaining: %v", ErrInternal, err)
	}

	usage, err := s.subscriptionRepo.InsertUsage(ctx, sub.ID, bookingID)
	if err != nil {
		s.logger.Error("ConsumeSession: failed to insert usage for subscription=%d: %v", sub.ID, err)
		return nil, fmt.Errorf("%w: ConsumeSession - insert usage: %v", ErrInternal, err)
	}

	s.logger.Info("ConsumeSession: subscription=%d booking=%d remaining=%d", sub.ID, bookingID, remaining)
	return usage, nil
}

// ReturnSessionByBooking возвращает занятие абонемента, списанное
// на бронирование: удаляет связь и увеличивает остаток
// Абонемент реактивируется, только если он погас из-за исчерпания занятий;
// истёкший по сроку абонемент никогда не оживает
func (s *Service) ReturnSessionByBooking(ctx context.Context, bookingID int64, now time.Time) (*domain.Subscription, error) {
	usage, err := s.subscriptionRepo.GetUsageByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrUsageNotFound) {
			return nil, ErrUsageNotFound
		}
		s.logger.Error("ReturnSessionByBooking: repository error for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: ReturnSessionByBooking - repository error: %v", ErrInternal, err)
	}

	sub, err := s.subscriptionRepo.GetByID(ctx, usage.SubscriptionID)
	if err != nil {
		s.logger.Error("ReturnSessionByBooking: failed to get subscription=%d: %v", usage.SubscriptionID, err)
		return nil, fmt.Errorf("%w: ReturnSessionByBooking - get subscription: %v", ErrInternal, err)
	}

	if err := s.subscriptionRepo.DeleteUsage(ctx, usage.ID); err != nil {
		s.logger.Error("ReturnSessionByBooking: failed to delete usage=%d: %v", usage.ID, err)
		return nil, fmt.Errorf("%w: ReturnSessionByBooking - delete usage: %v", ErrInternal, err)
	}

	remaining := sub.RemainingSessions + 1
	if remaining > sub.TotalSessions {
		remaining = sub.TotalSessions
	}

	status := sub.Status
	if sub.Status == domain.SubscriptionInactive && !sub.IsExpiredAt(now) {
		status = domain.SubscriptionActive
	}

	if err := s.subscriptionRepo.UpdateRemaining(ctx, sub.ID, remaining, status); err != nil {
		s.logger.Error("ReturnSessionByBooking: failed to update subscription=%d: %v", sub.ID, err)
		return nil, fmt.Errorf("%w: ReturnSessionByBooking - update remaining: %v", ErrInternal, err)
	}

	sub.RemainingSessions = remaining
	sub.Status = status

	s.logger.Info("ReturnSessionByBooking: subscription=%d booking=%d remaining=%d status=%s",
		sub.ID, bookingID, remaining, status)
	return sub, nil
}

// HasUsageForBooking возвращает true, если на бронирование было
// списано занятие абонемента
func (s *Service) HasUsageForBooking(ctx context.Context, bookingID int64) (bool, error) {
	_, err := s.subscriptionRepo.GetUsageByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrUsageNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: HasUsageForBooking - repository error: %v", ErrInternal, err)
	}
	return true, nil
}

func (s *Service) getWalletByClient(ctx context.Context, clientID int64, method string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, walletRepo.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		s.logger.Error("%s: repository error for client=%d: %v", method, clientID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
	return w, nil
}
