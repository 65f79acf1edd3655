package cancel_booking

import (
	cancelBooking "github.com/m04kA/SkiSchool-BookingService/internal/usecase/cancel_booking"
)

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	BookingID    int64   `json:"bookingId"`
	RefundMethod string  `json:"refundMethod"`
	RefundAmount float64 `json:"refundAmount"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelBooking.Response) *CancelBookingResponse {
	return &CancelBookingResponse{
		BookingID:    resp.BookingID,
		RefundMethod: string(resp.RefundMethod),
		RefundAmount: resp.RefundAmount,
	}
}
