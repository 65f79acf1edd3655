package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с клиентами и их иждивенцами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var clientColumns = []string{
	"id",
	"tg_user_id",
	"name",
	"phone",
	"skill_level",
	"birth_date",
	"created_at",
	"updated_at",
}

// GetByTgUserID получает клиента по внешнему идентификатору (Telegram ID)
func (r *Repository) GetByTgUserID(ctx context.Context, tgUserID int64) (*domain.Client, error) {
	return r.getOne(ctx, squirrel.Eq{"tg_user_id": tgUserID}, "GetByTgUserID")
}

// GetByID получает клиента по внутреннему идентификатору
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq, method string) (*domain.Client, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(clientColumns...).
		From("clients").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	var c domain.Client
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.TgUserID,
		&c.Name,
		&c.Phone,
		&c.SkillLevel,
		&c.BirthDate,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan client: %v", ErrScanRow, method, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

// ListDependents получает всех иждивенцев клиента, отсортированных по имени
func (r *Repository) ListDependents(ctx context.Context, clientID int64) ([]*domain.Dependent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"client_id",
		"name",
		"birth_date",
		"skill_level",
		"created_at",
	).
		From("dependents").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDependents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDependents - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	dependents := make([]*domain.Dependent, 0)
	for rows.Next() {
		var d domain.Dependent
		var createdAt sql.NullTime

		if err := rows.Scan(&d.ID, &d.ClientID, &d.Name, &d.BirthDate, &d.SkillLevel, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: ListDependents - scan row: %v", ErrScanRow, err)
		}

		d.CreatedAt = createdAt.Time
		dependents = append(dependents, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListDependents - rows error: %v", ErrScanRow, err)
	}

	return dependents, nil
}

// GetDependent получает иждивенца по ID
func (r *Repository) GetDependent(ctx context.Context, id int64) (*domain.Dependent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"client_id",
		"name",
		"birth_date",
		"skill_level",
		"created_at",
	).
		From("dependents").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDependent - build select query: %v", ErrBuildQuery, err)
	}

	var d domain.Dependent
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&d.ID,
		&d.ClientID,
		&d.Name,
		&d.BirthDate,
		&d.SkillLevel,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrDependentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDependent - scan dependent: %v", ErrScanRow, err)
	}

	d.CreatedAt = createdAt.Time

	return &d, nil
}
