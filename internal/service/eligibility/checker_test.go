package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

func venueDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, domain.VenueLocation)
}

func TestCheckDate(t *testing.T) {
	// 15 января, 10:00 по времени площадки
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, domain.VenueLocation)
	horizon := venueDate(2026, time.February, 14)

	tests := []struct {
		name    string
		date    time.Time
		horizon *time.Time
		wantErr error
	}{
		{
			name: "today is allowed",
			date: venueDate(2026, time.January, 15),
		},
		{
			name:    "yesterday is rejected",
			date:    venueDate(2026, time.January, 14),
			wantErr: ErrDateInPast,
		},
		{
			name:    "horizon boundary is allowed",
			date:    venueDate(2026, time.February, 14),
			horizon: &horizon,
		},
		{
			name:    "day after horizon is rejected",
			date:    venueDate(2026, time.February, 15),
			horizon: &horizon,
			wantErr: ErrDateBeyondHorizon,
		},
		{
			name: "far future without horizon is allowed",
			date: venueDate(2027, time.June, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDate(tt.date, now, tt.horizon)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckDate_VenueTimezone(t *testing.T) {
	// В UTC еще 22:00 14 января, но на площадке (UTC+5) уже 15 января.
	// Бронь на 14 января должна быть отклонена
	now := time.Date(2026, time.January, 14, 22, 0, 0, 0, time.UTC)

	err := CheckDate(venueDate(2026, time.January, 14), now, nil)
	assert.ErrorIs(t, err, ErrDateInPast)

	err = CheckDate(venueDate(2026, time.January, 15), now, nil)
	assert.NoError(t, err)
}

func TestCheckSkill(t *testing.T) {
	assert.NoError(t, CheckSkill(5, 5))
	assert.NoError(t, CheckSkill(7, 5))
	assert.ErrorIs(t, CheckSkill(4, 5), ErrSkillTooLow)
}

func TestCheckAudience(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		audience domain.Audience
		wantErr  bool
	}{
		{name: "adult in adults group", age: 30, audience: domain.AudienceAdults},
		{name: "18 counts as adult", age: 18, audience: domain.AudienceAdults},
		{name: "child in adults group", age: 12, audience: domain.AudienceAdults, wantErr: true},
		{name: "child in children group", age: 12, audience: domain.AudienceChildren},
		{name: "17 still counts as child", age: 17, audience: domain.AudienceChildren},
		{name: "adult in children group", age: 18, audience: domain.AudienceChildren, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAudience(tt.age, tt.audience)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAgeNotEligible)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEligibleParticipants(t *testing.T) {
	session := &domain.GroupSession{
		SkillLevel: 3,
		Audience:   domain.AudienceChildren,
	}

	participants := []domain.Participant{
		{Name: "Подходит", Age: 10, SkillLevel: 3},
		{Name: "Слабый уровень", Age: 10, SkillLevel: 2},
		{Name: "Взрослый", Age: 25, SkillLevel: 8},
	}

	eligible := EligibleParticipants(participants, session)

	require.Len(t, eligible, 1)
	assert.Equal(t, "Подходит", eligible[0].Name)
}
