package domain

import "time"

// SubscriptionStatus статус абонемента
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Subscription абонемент клиента на фиксированное количество занятий
// Инвариант: 0 <= RemainingSessions <= TotalSessions
type Subscription struct {
	ID                int64
	ClientID          int64
	TotalSessions     int
	RemainingSessions int
	ExpiresAt         time.Time
	Status            SubscriptionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsExpiredAt returns true if the subscription has expired by the given moment
// Сравнение по дате в часовом поясе площадки
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt.Before(VenueToday(now))
}

// IsExhausted returns true if no sessions remain
func (s *Subscription) IsExhausted() bool {
	return s.RemainingSessions <= 0
}

// CanConsumeAt returns true if a session can be consumed at the given moment
func (s *Subscription) CanConsumeAt(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.IsExpiredAt(now) && !s.IsExhausted()
}

// SubscriptionUsage связь списанного занятия абонемента с бронированием
// Удаляется при отмене брони с возвратом занятия
type SubscriptionUsage struct {
	ID             int64
	SubscriptionID int64
	BookingID      int64
	CreatedAt      time.Time
}
