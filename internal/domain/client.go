package domain

import "time"

// Client represents a registered customer of the venue
type Client struct {
	ID         int64
	TgUserID   int64 // стабильный внешний идентификатор (Telegram ID)
	Name       string
	Phone      *string
	SkillLevel int
	BirthDate  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Age returns the client's age in full years at the given moment,
// or -1 if the birth date is unknown
func (c *Client) Age(at time.Time) int {
	if c.BirthDate == nil {
		return -1
	}
	return ageAt(*c.BirthDate, at)
}

// Dependent represents a linked family member (child) of a client
type Dependent struct {
	ID         int64
	ClientID   int64
	Name       string
	BirthDate  time.Time
	SkillLevel int
	CreatedAt  time.Time
}

// Age returns the dependent's age in full years at the given moment
func (d *Dependent) Age(at time.Time) int {
	return ageAt(d.BirthDate, at)
}

// Participant одна персона, на которую оформлено участие в бронировании
// Либо сам клиент / его иждивенец (DependentID), либо внешний участник
// частной группы, известный только по имени и возрасту
type Participant struct {
	DependentID *int64
	Name        string
	Age         int
	SkillLevel  int
}

// IsAdult returns true if the participant is in the adult age band
func (p *Participant) IsAdult() bool {
	return p.Age >= AdultMinAge
}

func ageAt(birthDate, at time.Time) int {
	years := at.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}
