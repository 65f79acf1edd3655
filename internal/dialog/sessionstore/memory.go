package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/dialog"
)

type memoryEntry struct {
	session  *dialog.Session
	deadline time.Time
}

// Memory хранилище сессий в памяти процесса
// Подходит для одного инстанса; при нескольких репликах используйте Redis
type Memory struct {
	mu      sync.RWMutex
	entries map[int64]memoryEntry
	ttl     time.Duration
}

// NewMemory создает in-memory хранилище сессий с заданным TTL
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[int64]memoryEntry),
		ttl:     ttl,
	}
}

// Get возвращает сессию пользователя
// Просроченная сессия удаляется и считается отсутствующей
func (m *Memory) Get(ctx context.Context, tgUserID int64) (*dialog.Session, error) {
	m.mu.RLock()
	entry, ok := m.entries[tgUserID]
	m.mu.RUnlock()

	if !ok {
		return nil, dialog.ErrSessionNotFound
	}

	if time.Now().After(entry.deadline) {
		m.mu.Lock()
		delete(m.entries, tgUserID)
		m.mu.Unlock()
		return nil, dialog.ErrSessionNotFound
	}

	copied := *entry.session
	return &copied, nil
}

// Set сохраняет сессию, продлевая TTL
func (m *Memory) Set(ctx context.Context, session *dialog.Session) error {
	if session == nil {
		return fmt.Errorf("sessionstore: nil session")
	}

	copied := *session

	m.mu.Lock()
	m.entries[session.TgUserID] = memoryEntry{
		session:  &copied,
		deadline: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return nil
}

// Delete удаляет сессию пользователя
func (m *Memory) Delete(ctx context.Context, tgUserID int64) error {
	m.mu.Lock()
	delete(m.entries, tgUserID)
	m.mu.Unlock()
	return nil
}

// Cleanup удаляет просроченные сессии, возвращает число удаленных
// Вызывается периодически из фонового тикера в main
func (m *Memory) Cleanup() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.entries {
		if now.After(entry.deadline) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}
