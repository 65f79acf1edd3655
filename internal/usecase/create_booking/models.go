package create_booking

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// PaymentPreference пожелание клиента по способу оплаты
type PaymentPreference string

const (
	// PaymentAuto абонемент, если он применим, иначе кошелёк
	PaymentAuto PaymentPreference = "auto"
	// PaymentWallet только кошелёк
	PaymentWallet PaymentPreference = "wallet"
	// PaymentSubscription только абонемент
	PaymentSubscription PaymentPreference = "subscription"
)

// SimulatorSelection выбор слота тренажёра
type SimulatorSelection struct {
	Lane            int              // дорожка
	Date            time.Time        // дата тренировки
	StartTime       types.TimeString // время начала ("10:00")
	DurationMinutes int              // длительность, кратная шагу сетки
}

// PrivateGroupSpec параметры частной ad-hoc группы
// Группа создается на свободном слоте инструктора и не видна посторонним
type PrivateGroupSpec struct {
	InstructorSlotID int64 // слот инструктора, на котором создается группа
	SkillLevel       int   // требуемый уровень подготовки
	MaxParticipants  int   // вместимость; 0 - по количеству участников
}

// ParticipantInput участник бронирования
// Либо ссылка на иждивенца клиента (DependentID), либо персона,
// известная только по имени и возрасту
type ParticipantInput struct {
	DependentID *int64
	Name        string
	Age         int
	SkillLevel  int
}

// Request модель запроса на создание бронирования
type Request struct {
	ClientID     int64              // внутренний ID клиента
	Resource     domain.ResourceRef // класс ресурса; ID для instructor/group
	Simulator    *SimulatorSelection
	PrivateGroup *PrivateGroupSpec
	Participants []ParticipantInput
	Payment      PaymentPreference
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64
	ClientID        int64
	ResourceClass   domain.ResourceClass
	ResourceID      int64
	Date            time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Sport           *domain.Sport
	Price           float64
	PaymentMethod   domain.PaymentMethod
	Status          string
	Participants    []domain.BookingParticipant
	CreatedAt       time.Time
}

func buildResponse(b *domain.Booking) *Response {
	return &Response{
		ID:              b.ID,
		ClientID:        b.ClientID,
		ResourceClass:   b.ResourceClass,
		ResourceID:      b.ResourceID,
		Date:            b.Date,
		StartTime:       b.StartTime,
		DurationMinutes: b.DurationMinutes,
		Sport:           b.Sport,
		Price:           b.Price,
		PaymentMethod:   b.PaymentMethod,
		Status:          string(b.Status),
		Participants:    b.Participants,
		CreatedAt:       b.CreatedAt,
	}
}
