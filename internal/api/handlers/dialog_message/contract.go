package dialog_message

import (
	"context"

	"github.com/m04kA/SkiSchool-BookingService/internal/dialog"
)

type DialogController interface {
	HandleMessage(ctx context.Context, tgUserID int64, text string) (*dialog.Reply, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
