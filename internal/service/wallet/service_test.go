package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	subscriptionRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/subscription"
	walletStorage "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/wallet"
)

// ---- Фейки ----

type fakeWalletRepo struct {
	wallet   *domain.Wallet
	entries  []*domain.LedgerEntry
	balances []float64 // история UpdateBalance
}

func (f *fakeWalletRepo) GetByClientID(ctx context.Context, clientID int64) (*domain.Wallet, error) {
	if f.wallet == nil || f.wallet.ClientID != clientID {
		return nil, walletStorage.ErrWalletNotFound
	}
	copied := *f.wallet
	return &copied, nil
}

func (f *fakeWalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	copied := *f.wallet
	return &copied, nil
}

func (f *fakeWalletRepo) UpdateBalance(ctx context.Context, walletID int64, balance float64) error {
	f.wallet.Balance = balance
	f.balances = append(f.balances, balance)
	return nil
}

func (f *fakeWalletRepo) InsertEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	created := *entry
	created.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, &created)
	return &created, nil
}

func (f *fakeWalletRepo) ListEntries(ctx context.Context, walletID int64, limit int) ([]*domain.LedgerEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

func (f *fakeWalletRepo) SumEntries(ctx context.Context, walletID int64) (float64, error) {
	var sum float64
	for _, e := range f.entries {
		sum += e.Signed()
	}
	return sum, nil
}

type fakeSubscriptionRepo struct {
	sub        *domain.Subscription
	usage      *domain.SubscriptionUsage
	lastStatus domain.SubscriptionStatus
}

func (f *fakeSubscriptionRepo) GetActiveByClientID(ctx context.Context, clientID int64) (*domain.Subscription, error) {
	if f.sub == nil || f.sub.Status != domain.SubscriptionActive {
		return nil, subscriptionRepo.ErrSubscriptionNotFound
	}
	copied := *f.sub
	return &copied, nil
}

func (f *fakeSubscriptionRepo) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	if f.sub == nil || f.sub.ID != id {
		return nil, subscriptionRepo.ErrSubscriptionNotFound
	}
	copied := *f.sub
	return &copied, nil
}

func (f *fakeSubscriptionRepo) UpdateRemaining(ctx context.Context, id int64, remaining int, status domain.SubscriptionStatus) error {
	f.sub.RemainingSessions = remaining
	f.sub.Status = status
	f.lastStatus = status
	return nil
}

func (f *fakeSubscriptionRepo) InsertUsage(ctx context.Context, subscriptionID, bookingID int64) (*domain.SubscriptionUsage, error) {
	f.usage = &domain.SubscriptionUsage{ID: 1, SubscriptionID: subscriptionID, BookingID: bookingID}
	return f.usage, nil
}

func (f *fakeSubscriptionRepo) GetUsageByBookingID(ctx context.Context, bookingID int64) (*domain.SubscriptionUsage, error) {
	if f.usage == nil || f.usage.BookingID != bookingID {
		return nil, subscriptionRepo.ErrUsageNotFound
	}
	return f.usage, nil
}

func (f *fakeSubscriptionRepo) DeleteUsage(ctx context.Context, usageID int64) error {
	f.usage = nil
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// ---- Тесты ----

var now = time.Date(2026, time.January, 15, 12, 0, 0, 0, domain.VenueLocation)

func newWallet(balance float64) *domain.Wallet {
	return &domain.Wallet{ID: 1, ClientID: 10, Number: "W-0001", Balance: balance}
}

func TestDebit(t *testing.T) {
	repo := &fakeWalletRepo{wallet: newWallet(1000)}
	svc := NewService(repo, &fakeSubscriptionRepo{}, nopLogger{})

	entry, err := svc.Debit(context.Background(), 10, 700, "Оплата бронирования №5")
	require.NoError(t, err)

	assert.Equal(t, domain.EntryDebit, entry.Type)
	assert.Equal(t, 700.0, entry.Amount)
	assert.Equal(t, 300.0, repo.wallet.Balance)
	require.Len(t, repo.entries, 1)
}

func TestDebit_InsufficientFunds(t *testing.T) {
	repo := &fakeWalletRepo{wallet: newWallet(500)}
	svc := NewService(repo, &fakeSubscriptionRepo{}, nopLogger{})

	_, err := svc.Debit(context.Background(), 10, 700, "Оплата")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Ни записи в журнале, ни изменения баланса
	assert.Empty(t, repo.entries)
	assert.Equal(t, 500.0, repo.wallet.Balance)
}

func TestDebit_InvalidAmount(t *testing.T) {
	svc := NewService(&fakeWalletRepo{wallet: newWallet(500)}, &fakeSubscriptionRepo{}, nopLogger{})

	_, err := svc.Debit(context.Background(), 10, 0, "Оплата")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Debit(context.Background(), 10, -100, "Оплата")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCredit_NoCeiling(t *testing.T) {
	repo := &fakeWalletRepo{wallet: newWallet(0)}
	svc := NewService(repo, &fakeSubscriptionRepo{}, nopLogger{})

	entry, err := svc.Credit(context.Background(), 10, 5000, "Возврат за бронирование №3")
	require.NoError(t, err)

	assert.Equal(t, domain.EntryCredit, entry.Type)
	assert.Equal(t, 5000.0, repo.wallet.Balance)
}

func TestConsumeSession(t *testing.T) {
	subs := &fakeSubscriptionRepo{sub: &domain.Subscription{
		ID:                3,
		TotalSessions:     10,
		RemainingSessions: 2,
		ExpiresAt:         now.AddDate(0, 1, 0),
		Status:            domain.SubscriptionActive,
	}}
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, subs, nopLogger{})

	usage, err := svc.ConsumeSession(context.Background(), 3, 42, now)
	require.NoError(t, err)

	assert.Equal(t, int64(42), usage.BookingID)
	assert.Equal(t, 1, subs.sub.RemainingSessions)
	assert.Equal(t, domain.SubscriptionActive, subs.lastStatus)
}

func TestConsumeSession_LastSessionDeactivates(t *testing.T) {
	subs := &fakeSubscriptionRepo{sub: &domain.Subscription{
		ID:                3,
		TotalSessions:     10,
		RemainingSessions: 1,
		ExpiresAt:         now.AddDate(0, 1, 0),
		Status:            domain.SubscriptionActive,
	}}
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, subs, nopLogger{})

	_, err := svc.ConsumeSession(context.Background(), 3, 42, now)
	require.NoError(t, err)

	assert.Equal(t, 0, subs.sub.RemainingSessions)
	assert.Equal(t, domain.SubscriptionInactive, subs.lastStatus)
}

func TestConsumeSession_ExpiredAndExhausted(t *testing.T) {
	expired := &fakeSubscriptionRepo{sub: &domain.Subscription{
		ID:                3,
		RemainingSessions: 5,
		ExpiresAt:         now.AddDate(0, 0, -1),
		Status:            domain.SubscriptionActive,
	}}
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, expired, nopLogger{})

	_, err := svc.ConsumeSession(context.Background(), 3, 42, now)
	assert.ErrorIs(t, err, ErrSubscriptionExpired)

	exhausted := &fakeSubscriptionRepo{sub: &domain.Subscription{
		ID:                3,
		RemainingSessions: 0,
		ExpiresAt:         now.AddDate(0, 1, 0),
		Status:            domain.SubscriptionActive,
	}}
	svc = NewService(&fakeWalletRepo{wallet: newWallet(0)}, exhausted, nopLogger{})

	_, err = svc.ConsumeSession(context.Background(), 3, 42, now)
	assert.ErrorIs(t, err, ErrSubscriptionExhausted)
}

func TestReturnSessionByBooking_ReactivatesExhausted(t *testing.T) {
	subs := &fakeSubscriptionRepo{
		sub: &domain.Subscription{
			ID:                3,
			TotalSessions:     10,
			RemainingSessions: 0,
			ExpiresAt:         now.AddDate(0, 1, 0),
			Status:            domain.SubscriptionInactive,
		},
		usage: &domain.SubscriptionUsage{ID: 1, SubscriptionID: 3, BookingID: 42},
	}
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, subs, nopLogger{})

	sub, err := svc.ReturnSessionByBooking(context.Background(), 42, now)
	require.NoError(t, err)

	assert.Equal(t, 1, sub.RemainingSessions)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Nil(t, subs.usage)
}

func TestReturnSessionByBooking_ExpiredStaysInactive(t *testing.T) {
	// Абонемент погас по сроку - возврат занятия его не оживляет
	subs := &fakeSubscriptionRepo{
		sub: &domain.Subscription{
			ID:                3,
			TotalSessions:     10,
			RemainingSessions: 0,
			ExpiresAt:         now.AddDate(0, 0, -5),
			Status:            domain.SubscriptionInactive,
		},
		usage: &domain.SubscriptionUsage{ID: 1, SubscriptionID: 3, BookingID: 42},
	}
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, subs, nopLogger{})

	sub, err := svc.ReturnSessionByBooking(context.Background(), 42, now)
	require.NoError(t, err)

	assert.Equal(t, 1, sub.RemainingSessions)
	assert.Equal(t, domain.SubscriptionInactive, sub.Status)
}

func TestReturnSessionByBooking_NoUsage(t *testing.T) {
	svc := NewService(&fakeWalletRepo{wallet: newWallet(0)}, &fakeSubscriptionRepo{}, nopLogger{})

	_, err := svc.ReturnSessionByBooking(context.Background(), 42, now)
	assert.ErrorIs(t, err, ErrUsageNotFound)
}
