package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m04kA/SkiSchool-BookingService/internal/dialog"
)

const redisKeyPrefix = "dialog:session:"

// Redis хранилище сессий в Redis
// Сессия хранится как JSON с TTL, продлеваемым на каждой записи
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis создает хранилище сессий поверх подключения к Redis
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает сессию пользователя
func (r *Redis) Get(ctx context.Context, tgUserID int64) (*dialog.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(tgUserID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dialog.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessionstore: Get - failed to read session: %w", err)
	}

	var session dialog.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// Несовместимый формат после деплоя равносилен отсутствию сессии
		return nil, dialog.ErrSessionNotFound
	}

	return &session, nil
}

// Set сохраняет сессию, продлевая TTL
func (r *Redis) Set(ctx context.Context, session *dialog.Session) error {
	if session == nil {
		return fmt.Errorf("sessionstore: nil session")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessionstore: Set - failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(session.TgUserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore: Set - failed to write session: %w", err)
	}

	return nil
}

// Delete удаляет сессию пользователя
func (r *Redis) Delete(ctx context.Context, tgUserID int64) error {
	if err := r.client.Del(ctx, sessionKey(tgUserID)).Err(); err != nil {
		return fmt.Errorf("sessionstore: Delete - failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(tgUserID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, tgUserID)
}
