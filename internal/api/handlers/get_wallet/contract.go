package get_wallet

import (
	"context"

	"github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
)

type WalletService interface {
	GetStatement(ctx context.Context, clientID int64, limit int) (*wallet.Statement, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
