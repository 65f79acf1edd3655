package eligibility

import "errors"

var (
	// ErrDateInPast возвращается, когда дата тренировки уже прошла
	// (по часовому поясу площадки, не сервера)
	ErrDateInPast = errors.New("eligibility: date is in the past")

	// ErrDateBeyondHorizon возвращается, когда дата выходит за горизонт
	// опубликованного расписания
	ErrDateBeyondHorizon = errors.New("eligibility: date is beyond the published schedule")

	// ErrSkillTooLow возвращается, когда уровень подготовки участника
	// ниже требуемого для ресурса
	ErrSkillTooLow = errors.New("eligibility: participant skill level is too low")

	// ErrAgeNotEligible возвращается, когда возраст участника не попадает
	// в возрастную аудиторию группы
	ErrAgeNotEligible = errors.New("eligibility: participant age is outside the group audience")
)
