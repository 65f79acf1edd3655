package notifyservice

// Notification уведомление клиенту о событии бронирования
type Notification struct {
	TgUserID  int64  `json:"tg_user_id"`
	Event     string `json:"event"`
	BookingID int64  `json:"booking_id"`
	Message   string `json:"message"`
}

// События бронирования
const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)
