package subscription

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с абонементами и их списаниями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория абонементов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var subscriptionColumns = []string{
	"id",
	"client_id",
	"total_sessions",
	"remaining_sessions",
	"expires_at",
	"status",
	"created_at",
	"updated_at",
}

// GetActiveByClientID получает активный абонемент клиента
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetActiveByClientID(ctx context.Context, clientID int64) (*domain.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{"client_id": clientID, "status": domain.SubscriptionActive}, "GetActiveByClientID")
}

// GetByID получает абонемент по ID независимо от статуса
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq, method string) (*domain.Subscription, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(subscriptionColumns...).
		From("subscriptions").
		Where(where).
		OrderBy("expires_at DESC").
		Limit(1)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	var s domain.Subscription
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.ClientID,
		&s.TotalSessions,
		&s.RemainingSessions,
		&s.ExpiresAt,
		&s.Status,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan subscription: %v", ErrScanRow, method, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// UpdateRemaining устанавливает остаток занятий и статус абонемента
func (r *Repository) UpdateRemaining(ctx context.Context, id int64, remaining int, status domain.SubscriptionStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("subscriptions").
		Set("remaining_sessions", remaining).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateRemaining - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateRemaining - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateRemaining - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// InsertUsage создает связь списанного занятия с бронированием
func (r *Repository) InsertUsage(ctx context.Context, subscriptionID, bookingID int64) (*domain.SubscriptionUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("subscription_usages").
		Columns("subscription_id", "booking_id").
		Values(subscriptionID, bookingID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: InsertUsage - build insert query: %v", ErrBuildQuery, err)
	}

	usage := &domain.SubscriptionUsage{
		SubscriptionID: subscriptionID,
		BookingID:      bookingID,
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&usage.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: InsertUsage - execute insert: %v", ErrExecQuery, err)
	}

	usage.CreatedAt = createdAt.Time

	return usage, nil
}

// GetUsageByBookingID получает списание занятия по бронированию
func (r *Repository) GetUsageByBookingID(ctx context.Context, bookingID int64) (*domain.SubscriptionUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"subscription_id",
		"booking_id",
		"created_at",
	).
		From("subscription_usages").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetUsageByBookingID - build select query: %v", ErrBuildQuery, err)
	}

	var u domain.SubscriptionUsage
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.SubscriptionID,
		&u.BookingID,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetUsageByBookingID - scan usage: %v", ErrScanRow, err)
	}

	u.CreatedAt = createdAt.Time

	return &u, nil
}

// DeleteUsage удаляет связь списанного занятия
// Единственный случай удаления - возврат занятия при отмене брони
func (r *Repository) DeleteUsage(ctx context.Context, usageID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("subscription_usages").
		Where(squirrel.Eq{"id": usageID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteUsage - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteUsage - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteUsage - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrUsageNotFound
	}

	return nil
}
