package create_booking

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	createBooking "github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// SimulatorRequest выбор слота тренажёра
type SimulatorRequest struct {
	Lane            int    `json:"lane"`
	Date            string `json:"date"`      // "2026-01-15"
	StartTime       string `json:"startTime"` // "10:00"
	DurationMinutes int    `json:"durationMinutes"`
}

// PrivateGroupRequest параметры частной группы на слоте инструктора
type PrivateGroupRequest struct {
	InstructorSlotID int64 `json:"instructorSlotId"`
	SkillLevel       int   `json:"skillLevel"`
	MaxParticipants  int   `json:"maxParticipants,omitempty"`
}

// ParticipantRequest участник бронирования
type ParticipantRequest struct {
	DependentID *int64 `json:"dependentId,omitempty"`
	Name        string `json:"name,omitempty"`
	Age         int    `json:"age,omitempty"`
	SkillLevel  int    `json:"skillLevel,omitempty"`
}

// CreateBookingRequest HTTP request model
// ID клиента берется из заголовка X-User-ID, не из тела
type CreateBookingRequest struct {
	ResourceClass string                `json:"resourceClass"`
	ResourceID    int64                 `json:"resourceId,omitempty"`
	Simulator     *SimulatorRequest     `json:"simulator,omitempty"`
	PrivateGroup  *PrivateGroupRequest  `json:"privateGroup,omitempty"`
	Participants  []ParticipantRequest  `json:"participants"`
	Payment       string                `json:"payment,omitempty"`
}

// ParticipantResponse участник в HTTP ответе
type ParticipantResponse struct {
	DependentID *int64 `json:"dependentId,omitempty"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64                 `json:"id"`
	ClientID        int64                 `json:"clientId"`
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
	CreatedAt       string                `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID int64) (*createBooking.Request, error) {
	payment := createBooking.PaymentAuto
	if r.Payment != "" {
		payment = createBooking.PaymentPreference(r.Payment)
	}

	req := &createBooking.Request{
		ClientID: clientID,
		Resource: domain.ResourceRef{
			Class: domain.ResourceClass(r.ResourceClass),
			ID:    r.ResourceID,
		},
		Payment: payment,
	}

	if r.Simulator != nil {
		date, err := time.ParseInLocation(domain.DateFormat, r.Simulator.Date, domain.VenueLocation)
		if err != nil {
			return nil, err
		}
		startTime, err := types.NewTimeStringFromString(r.Simulator.StartTime)
		if err != nil {
			return nil, err
		}
		req.Simulator = &createBooking.SimulatorSelection{
			Lane:            r.Simulator.Lane,
			Date:            date,
			StartTime:       startTime,
			DurationMinutes: r.Simulator.DurationMinutes,
		}
	}

	if r.PrivateGroup != nil {
		req.PrivateGroup = &createBooking.PrivateGroupSpec{
			InstructorSlotID: r.PrivateGroup.InstructorSlotID,
			SkillLevel:       r.PrivateGroup.SkillLevel,
			MaxParticipants:  r.PrivateGroup.MaxParticipants,
		}
	}

	req.Participants = make([]createBooking.ParticipantInput, 0, len(r.Participants))
	for _, p := range r.Participants {
		req.Participants = append(req.Participants, createBooking.ParticipantInput{
			DependentID: p.DependentID,
			Name:        p.Name,
			Age:         p.Age,
			SkillLevel:  p.SkillLevel,
		})
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	var sport *string
	if resp.Sport != nil {
		s := string(*resp.Sport)
		sport = &s
	}

	participants := make([]ParticipantResponse, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		participants = append(participants, ParticipantResponse{
			DependentID: p.DependentID,
			Name:        p.Name,
			Age:         p.Age,
		})
	}

	return &BookingResponse{
		ID:              resp.ID,
		ClientID:        resp.ClientID,
		ResourceClass:   string(resp.ResourceClass),
		ResourceID:      resp.ResourceID,
		Date:            resp.Date.Format(domain.DateFormat),
		StartTime:       resp.StartTime.String(),
		DurationMinutes: resp.DurationMinutes,
		Sport:           sport,
		Price:           resp.Price,
		PaymentMethod:   string(resp.PaymentMethod),
		Status:          resp.Status,
		Participants:    participants,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
	}
}
