package wallet

import (
	"context"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// WalletRepository интерфейс репозитория кошельков
type WalletRepository interface {
	GetByClientID(ctx context.Context, clientID int64) (*domain.Wallet, error)
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, walletID int64, balance float64) error
	InsertEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, walletID int64, limit int) ([]*domain.LedgerEntry, error)
	SumEntries(ctx context.Context, walletID int64) (float64, error)
}

// SubscriptionRepository интерфейс репозитория абонементов
type SubscriptionRepository interface {
	GetActiveByClientID(ctx context.Context, clientID int64) (*domain.Subscription, error)
	GetByID(ctx context.Context, id int64) (*domain.Subscription, error)
	UpdateRemaining(ctx context.Context, id int64, remaining int, status domain.SubscriptionStatus) error
	InsertUsage(ctx context.Context, subscriptionID, bookingID int64) (*domain.SubscriptionUsage, error)
	GetUsageByBookingID(ctx context.Context, bookingID int64) (*domain.SubscriptionUsage, error)
	DeleteUsage(ctx context.Context, usageID int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
