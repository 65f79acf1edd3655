package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/eligibility"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	switch req.Payment {
	case PaymentAuto, PaymentWallet, PaymentSubscription:
	default:
		return fmt.Errorf("%w: unknown payment preference %q", ErrInvalidInput, req.Payment)
	}

	if len(req.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}
	if len(req.Participants) > domain.MaxGroupSize {
		return fmt.Errorf("%w: at most %d participants allowed", ErrInvalidInput, domain.MaxGroupSize)
	}

	for i, p := range req.Participants {
		if err := validateParticipant(p); err != nil {
			return fmt.Errorf("%w: participant %d: %v", ErrInvalidInput, i, err)
		}
	}

	switch req.Resource.Class {
	case domain.ClassSimulator:
		return validateSimulatorSelection(req)
	case domain.ClassInstructor:
		return validateInstructorSelection(req)
	case domain.ClassGroup:
		return validateGroupSelection(req)
	default:
		return fmt.Errorf("%w: unknown resource class %q", ErrInvalidInput, req.Resource.Class)
	}
}

func validateParticipant(p ParticipantInput) error {
	// Данные иждивенца берутся из его записи, входные поля игнорируются
	if p.DependentID != nil {
		if *p.DependentID <= 0 {
			return errors.New("dependentID must be positive")
		}
		return nil
	}

	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Name) > domain.MaxParticipantNameLength {
		return fmt.Errorf("name is longer than %d characters", domain.MaxParticipantNameLength)
	}
	if p.Age < domain.MinParticipantAge || p.Age > domain.MaxParticipantAge {
		return fmt.Errorf("age must be between %d and %d", domain.MinParticipantAge, domain.MaxParticipantAge)
	}
	if p.SkillLevel < domain.MinSkillLevel || p.SkillLevel > domain.MaxSkillLevel {
		return fmt.Errorf("skill level must be between %d and %d", domain.MinSkillLevel, domain.MaxSkillLevel)
	}
	return nil
}

func validateSimulatorSelection(req *Request) error {
	sel := req.Simulator
	if sel == nil {
		return fmt.Errorf("%w: simulator selection is required", ErrInvalidInput)
	}
	if sel.Lane <= 0 {
		return fmt.Errorf("%w: lane must be positive", ErrInvalidInput)
	}
	if sel.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if sel.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := sel.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}
	if sel.DurationMinutes <= 0 || sel.DurationMinutes%domain.SimulatorSlotMinutes != 0 {
		return fmt.Errorf("%w: duration must be a positive multiple of %d minutes",
			ErrInvalidInput, domain.SimulatorSlotMinutes)
	}
	// Тренажёр - индивидуальная тренировка
	if len(req.Participants) != 1 {
		return fmt.Errorf("%w: simulator booking requires exactly one participant", ErrInvalidInput)
	}
	return nil
}

func validateInstructorSelection(req *Request) error {
	if req.Resource.ID <= 0 {
		return fmt.Errorf("%w: instructor slot ID is required", ErrInvalidInput)
	}
	if len(req.Participants) != 1 {
		return fmt.Errorf("%w: instructor booking requires exactly one participant", ErrInvalidInput)
	}
	return nil
}

func validateGroupSelection(req *Request) error {
	hasSession := req.Resource.ID > 0
	hasPrivate := req.PrivateGroup != nil

	if hasSession == hasPrivate {
		return fmt.Errorf("%w: either an existing group session or a private group spec is required", ErrInvalidInput)
	}

	if hasPrivate {
		pg := req.PrivateGroup
		if pg.InstructorSlotID <= 0 {
			return fmt.Errorf("%w: instructor slot ID is required for a private group", ErrInvalidInput)
		}
		if pg.SkillLevel < domain.MinSkillLevel || pg.SkillLevel > domain.MaxSkillLevel {
			return fmt.Errorf("%w: skill level must be between %d and %d",
				ErrInvalidInput, domain.MinSkillLevel, domain.MaxSkillLevel)
		}
		if pg.MaxParticipants < 0 || pg.MaxParticipants > domain.MaxGroupSize {
			return fmt.Errorf("%w: max participants must be between 0 and %d", ErrInvalidInput, domain.MaxGroupSize)
		}
		if pg.MaxParticipants > 0 && pg.MaxParticipants < len(req.Participants) {
			return fmt.Errorf("%w: max participants is smaller than the participant list", ErrInvalidInput)
		}
	}

	return nil
}

// mapEligibilityErr переводит ошибки проверок допуска в ошибки usecase
func mapEligibilityErr(err error) error {
	switch {
	case errors.Is(err, eligibility.ErrDateInPast):
		return ErrDateInPast
	case errors.Is(err, eligibility.ErrDateBeyondHorizon):
		return ErrDateBeyondHorizon
	case errors.Is(err, eligibility.ErrSkillTooLow):
		return ErrSkillTooLow
	case errors.Is(err, eligibility.ErrAgeNotEligible):
		return ErrAgeNotEligible
	default:
		return err
	}
}
