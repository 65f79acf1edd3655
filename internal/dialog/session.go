package dialog

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// Step позиция диалога
type Step string

const (
	StepMainMenu          Step = "main_menu"
	StepChooseClass       Step = "choose_class"
	StepChooseSport       Step = "choose_sport"
	StepChooseDate        Step = "choose_date"
	StepChooseDuration    Step = "choose_duration"
	StepChooseTime        Step = "choose_time"
	StepChooseSlot        Step = "choose_slot"
	StepChooseSession     Step = "choose_session"
	StepChooseParticipant Step = "choose_participant"
	StepChoosePayment     Step = "choose_payment"
	StepConfirm           Step = "confirm"
	StepCancelChoose      Step = "cancel_choose"
	StepCancelConfirm     Step = "cancel_confirm"
)

// ParticipantDraft участник, собранный в ходе диалога
type ParticipantDraft struct {
	DependentID *int64 `json:"dependent_id,omitempty"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	SkillLevel  int    `json:"skill_level"`
}

// SessionData собранные по шагам поля бронирования
// Варианты выбора последнего шага хранятся здесь же: клиент отвечает
// порядковым номером, и номер должен ссылаться на тот список,
// который ему показали
type SessionData struct {
	ClientID int64 `json:"client_id"`

	ResourceClass domain.ResourceClass `json:"resource_class,omitempty"`
	PrivateGroup  bool                 `json:"private_group,omitempty"`
	Sport         *domain.Sport        `json:"sport,omitempty"`
	Date          string               `json:"date,omitempty"` // YYYY-MM-DD

	Lane            int              `json:"lane,omitempty"`
	StartTime       types.TimeString `json:"start_time,omitempty"`
	DurationMinutes int              `json:"duration_minutes,omitempty"`

	GroupSessionID   int64 `json:"group_session_id,omitempty"`
	InstructorSlotID int64 `json:"instructor_slot_id,omitempty"`

	Participants []ParticipantDraft `json:"participants,omitempty"`
	Payment      string             `json:"payment,omitempty"`
	Price        float64            `json:"price,omitempty"`

	// Списки вариантов, показанные на последнем шаге
	DateOptions []string         `json:"date_options,omitempty"`
	TimeOptions []string         `json:"time_options,omitempty"`
	LaneByTime  map[string]int   `json:"lane_by_time,omitempty"`
	OptionIDs   []int64          `json:"option_ids,omitempty"`
	OptionPrices []float64       `json:"option_prices,omitempty"`
	DependentIDs []int64         `json:"dependent_ids,omitempty"`
	BookingIDs  []int64          `json:"booking_ids,omitempty"`
	CancelID    int64            `json:"cancel_id,omitempty"`
}

// Session диалоговая сессия одного пользователя
// Мутируется только контроллером диалога
type Session struct {
	TgUserID  int64       `json:"tg_user_id"`
	Step      Step        `json:"step"`
	Data      SessionData `json:"data"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewSession создает сессию в главном меню
func NewSession(tgUserID int64) *Session {
	return &Session{
		TgUserID: tgUserID,
		Step:     StepMainMenu,
	}
}

// Reset возвращает сессию в главное меню, сохраняя привязку к клиенту
func (s *Session) Reset() {
	clientID := s.Data.ClientID
	s.Step = StepMainMenu
	s.Data = SessionData{ClientID: clientID}
}
