// Package eligibility содержит чистые проверки допуска участника к ресурсу:
// дата в допустимом окне, достаточный уровень подготовки, возрастная аудитория.
// Никакого I/O - все данные уже прочитаны вызывающей стороной.
package eligibility

import (
	"fmt"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// CheckDate проверяет, что дата тренировки не в прошлом и не выходит
// за горизонт расписания. "Сегодня" вычисляется в фиксированном часовом
// поясе площадки (UTC+5) независимо от локального времени сервера.
// horizon == nil означает отсутствие верхней границы
func CheckDate(date time.Time, now time.Time, horizon *time.Time) error {
	today := domain.VenueToday(now)
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, domain.VenueLocation)

	if dateOnly.Before(today) {
		return fmt.Errorf("%w: %s", ErrDateInPast, date.Format(domain.DateFormat))
	}

	if horizon != nil {
		horizonOnly := time.Date(horizon.Year(), horizon.Month(), horizon.Day(), 0, 0, 0, 0, domain.VenueLocation)
		if dateOnly.After(horizonOnly) {
			return fmt.Errorf("%w: %s is after %s", ErrDateBeyondHorizon,
				date.Format(domain.DateFormat), horizon.Format(domain.DateFormat))
		}
	}

	return nil
}

// CheckSkill проверяет, что уровень подготовки участника не ниже требуемого
// Недостаточный уровень никогда не переопределяется молча
func CheckSkill(participantLevel, requiredLevel int) error {
	if participantLevel < requiredLevel {
		return fmt.Errorf("%w: level %d, required %d", ErrSkillTooLow, participantLevel, requiredLevel)
	}
	return nil
}

// CheckAudience проверяет попадание возраста участника в аудиторию группы:
// взрослая группа - 18 и старше, детская - строго младше 18
func CheckAudience(age int, audience domain.Audience) error {
	if audience == domain.AudienceChildren {
		if age >= domain.AdultMinAge {
			return fmt.Errorf("%w: age %d in a children group", ErrAgeNotEligible, age)
		}
		return nil
	}

	if age < domain.AdultMinAge {
		return fmt.Errorf("%w: age %d in an adults group", ErrAgeNotEligible, age)
	}
	return nil
}

// CheckParticipant проверяет участника против групповой тренировки:
// уровень подготовки и возрастная аудитория
func CheckParticipant(p domain.Participant, session *domain.GroupSession) error {
	if err := CheckSkill(p.SkillLevel, session.SkillLevel); err != nil {
		return err
	}
	return CheckAudience(p.Age, session.Audience)
}

// EligibleParticipants возвращает подмножество участников, проходящих
// проверки для групповой тренировки. Используется контроллером диалога,
// чтобы предложить выбор только из допустимых персон
func EligibleParticipants(participants []domain.Participant, session *domain.GroupSession) []domain.Participant {
	eligible := make([]domain.Participant, 0, len(participants))
	for _, p := range participants {
		if CheckParticipant(p, session) == nil {
			eligible = append(eligible, p)
		}
	}
	return eligible
}
