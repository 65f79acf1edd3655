package groupsession

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с групповыми тренировками
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория групповых тренировок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var sessionColumns = []string{
	"id",
	"date",
	"start_time",
	"duration_minutes",
	"sport",
	"skill_level",
	"audience",
	"max_participants",
	"current_participants",
	"private",
	"status",
	"price",
	"instructor_slot_id",
	"created_at",
	"updated_at",
}

// ListActiveDates получает даты начиная с from, на которые есть активные
// публичные групповые тренировки с опциональной фильтрацией
func (r *Repository) ListActiveDates(ctx context.Context, from time.Time, sport *domain.Sport, audience *domain.Audience) ([]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("DISTINCT date").
		From("group_sessions").
		Where(squirrel.Eq{"status": domain.GroupActive, "private": false}).
		Where(squirrel.GtOrEq{"date": from}).
		OrderBy("date ASC")

	if sport != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sport": *sport})
	}
	if audience != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"audience": *audience})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveDates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveDates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%w: ListActiveDates - scan date: %v", ErrScanRow, err)
		}
		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveDates - rows error: %v", ErrScanRow, err)
	}

	return dates, nil
}

// ListActiveByDate получает активные публичные групповые тренировки на дату,
// отсортированные по времени начала
// Частные группы никогда не попадают в выдачу для посторонних участников
func (r *Repository) ListActiveByDate(ctx context.Context, date time.Time, sport *domain.Sport, audience *domain.Audience) ([]*domain.GroupSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(sessionColumns...).
		From("group_sessions").
		Where(squirrel.Eq{"date": date, "status": domain.GroupActive, "private": false}).
		OrderBy("start_time ASC")

	if sport != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sport": *sport})
	}
	if audience != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"audience": *audience})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSessions(rows, "ListActiveByDate")
}

// GetByID получает групповую тренировку по ID
// Внутри транзакции строка блокируется (FOR UPDATE) - проверка вместимости
// и изменение счётчика происходят только под блокировкой
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.GroupSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(sessionColumns...).
		From("group_sessions").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	session, err := r.scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan session: %v", ErrScanRow, err)
	}

	return session, nil
}

// Create создает групповую тренировку
// Используется транзактором бронирования для частных ad-hoc групп
func (r *Repository) Create(ctx context.Context, session *domain.GroupSession) (*domain.GroupSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("group_sessions").
		Columns(
			"date",
			"start_time",
			"duration_minutes",
			"sport",
			"skill_level",
			"audience",
			"max_participants",
			"current_participants",
			"private",
			"status",
			"price",
			"instructor_slot_id",
		).
		Values(
			session.Date,
			session.StartTime,
			session.DurationMinutes,
			session.Sport,
			session.SkillLevel,
			session.Audience,
			session.MaxParticipants,
			session.CurrentParticipants,
			session.Private,
			session.Status,
			session.Price,
			session.InstructorSlotID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&session.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	session.CreatedAt = createdAt.Time
	session.UpdatedAt = updatedAt.Time

	return session, nil
}

// UpdateCurrentParticipants обновляет денормализованный счётчик-кэш занятости
// Источником истины остаётся агрегат по активным бронированиям
func (r *Repository) UpdateCurrentParticipants(ctx context.Context, id int64, count int) error {
	return r.update(ctx, id, map[string]interface{}{"current_participants": count}, "UpdateCurrentParticipants")
}

// UpdateStatus устанавливает статус групповой тренировки
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.GroupStatus) error {
	return r.update(ctx, id, map[string]interface{}{"status": status}, "UpdateStatus")
}

func (r *Repository) update(ctx context.Context, id int64, sets map[string]interface{}, method string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("group_sessions").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})
	for column, value := range sets {
		updateBuilder = updateBuilder.Set(column, value)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, method, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repository) scanSessions(rows *sql.Rows, method string) ([]*domain.GroupSession, error) {
	sessions := make([]*domain.GroupSession, 0)

	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return sessions, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanSession(row rowScanner) (*domain.GroupSession, error) {
	var s domain.GroupSession
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.Date,
		&s.StartTime,
		&s.DurationMinutes,
		&s.Sport,
		&s.SkillLevel,
		&s.Audience,
		&s.MaxParticipants,
		&s.CurrentParticipants,
		&s.Private,
		&s.Status,
		&s.Price,
		&s.InstructorSlotID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
