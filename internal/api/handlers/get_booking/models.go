package get_booking

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// ParticipantResponse участник в HTTP ответе
type ParticipantResponse struct {
	DependentID *int64 `json:"dependentId,omitempty"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64                 `json:"id"`
	ResourceClass   string                `json:"resourceClass"`
	ResourceID      int64                 `json:"resourceId"`
	Date            string                `json:"date"`
	StartTime       string                `json:"startTime"`
	DurationMinutes int                   `json:"durationMinutes"`
	Sport           *string               `json:"sport,omitempty"`
	Price           float64               `json:"price"`
	PaymentMethod   string                `json:"paymentMethod"`
	Status          string                `json:"status"`
	Participants    []ParticipantResponse `json:"participants"`
	CancelledAt     *string               `json:"cancelledAt,omitempty"`
	CreatedAt       string                `json:"createdAt"`
}

// FromDomain конвертирует доменную модель в HTTP response
func FromDomain(b *domain.Booking) *BookingResponse {
	var sport *string
	if b.Sport != nil {
		s := string(*b.Sport)
		sport = &s
	}

	var cancelledAt *string
	if b.CancelledAt != nil {
		c := b.CancelledAt.Format(time.RFC3339)
		cancelledAt = &c
	}

	participants := make([]ParticipantResponse, 0, len(b.Participants))
	for _, p := range b.Participants {
		participants = append(participants, ParticipantResponse{
			DependentID: p.DependentID,
			Name:        p.Name,
			Age:         p.Age,
		})
	}

	return &BookingResponse{
		ID:              b.ID,
		ResourceClass:   string(b.ResourceClass),
		ResourceID:      b.ResourceID,
		Date:            b.Date.Format(domain.DateFormat),
		StartTime:       b.StartTime.String(),
		DurationMinutes: b.DurationMinutes,
		Sport:           sport,
		Price:           b.Price,
		PaymentMethod:   string(b.PaymentMethod),
		Status:          string(b.Status),
		Participants:    participants,
		CancelledAt:     cancelledAt,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}
