package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
	"github.com/m04kA/SkiSchool-BookingService/pkg/types"
)

// Repository репозиторий расписания: слоты тренажёра, слоты инструкторов
// и настройки горизонта публикации
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ---- Слоты тренажёра ----

// ListFreeSimulatorDates получает даты в диапазоне [from, to],
// на которые есть хотя бы один свободный слот тренажёра
func (r *Repository) ListFreeSimulatorDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT date").
		From("simulator_slots").
		Where(squirrel.Eq{"booked": false}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListFreeSimulatorDates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListFreeSimulatorDates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanDates(rows, "ListFreeSimulatorDates")
}

// ListSimulatorSlots получает все слоты тренажёра на дату,
// отсортированные по дорожке и времени начала
func (r *Repository) ListSimulatorSlots(ctx context.Context, date time.Time) ([]*domain.SimulatorSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"lane",
		"date",
		"start_time",
		"booked",
	).
		From("simulator_slots").
		Where(squirrel.Eq{"date": date}).
		OrderBy("lane ASC, start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListSimulatorSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListSimulatorSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSimulatorSlots(rows, "ListSimulatorSlots")
}

// GetSimulatorRange получает подряд идущие слоты дорожки начиная с startTime
// Внутри транзакции строки блокируются (FOR UPDATE) - бронирование
// помечает их занятыми только под блокировкой
func (r *Repository) GetSimulatorRange(ctx context.Context, lane int, date time.Time, startTimes []types.TimeString) ([]*domain.SimulatorSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	times := make([]string, len(startTimes))
	for i, t := range startTimes {
		times[i] = t.String()
	}

	selectBuilder := psqlbuilder.Select(
		"id",
		"lane",
		"date",
		"start_time",
		"booked",
	).
		From("simulator_slots").
		Where(squirrel.Eq{"lane": lane, "date": date}).
		Where(squirrel.Eq{"start_time": times}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSimulatorRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetSimulatorRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSimulatorSlots(rows, "GetSimulatorRange")
}

// MarkSimulatorSlots помечает слоты занятыми или свободными
func (r *Repository) MarkSimulatorSlots(ctx context.Context, ids []int64, booked bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("simulator_slots").
		Set("booked", booked).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkSimulatorSlots - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkSimulatorSlots - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkSimulatorSlots - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: MarkSimulatorSlots - expected %d rows, updated %d", ErrSlotNotFound, len(ids), rowsAffected)
	}

	return nil
}

func (r *Repository) scanSimulatorSlots(rows *sql.Rows, method string) ([]*domain.SimulatorSlot, error) {
	slots := make([]*domain.SimulatorSlot, 0)

	for rows.Next() {
		var s domain.SimulatorSlot
		if err := rows.Scan(&s.ID, &s.Lane, &s.Date, &s.StartTime, &s.Booked); err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}
		slots = append(slots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return slots, nil
}

// ---- Слоты инструкторов ----

var instructorSlotColumns = []string{
	"id",
	"instructor_id",
	"instructor_name",
	"sport",
	"date",
	"start_time",
	"duration_minutes",
	"status",
}

// ListAvailableInstructorDates получает даты начиная с from,
// на которые есть хотя бы один свободный слот инструктора
// Горизонт естественного склона ограничен существующими строками расписания
func (r *Repository) ListAvailableInstructorDates(ctx context.Context, from time.Time, sport *domain.Sport, instructorID *int64) ([]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("DISTINCT date").
		From("instructor_slots").
		Where(squirrel.Eq{"status": domain.SlotAvailable}).
		Where(squirrel.GtOrEq{"date": from}).
		OrderBy("date ASC")

	if sport != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sport": *sport})
	}
	if instructorID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"instructor_id": *instructorID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAvailableInstructorDates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAvailableInstructorDates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanDates(rows, "ListAvailableInstructorDates")
}

// ListAvailableInstructorSlots получает свободные слоты инструкторов на дату
// с опциональной фильтрацией по виду спорта и инструктору
// Слоты разных инструкторов на одно время остаются отдельными записями
func (r *Repository) ListAvailableInstructorSlots(ctx context.Context, date time.Time, sport *domain.Sport, instructorID *int64) ([]*domain.InstructorSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(instructorSlotColumns...).
		From("instructor_slots").
		Where(squirrel.Eq{"date": date, "status": domain.SlotAvailable}).
		OrderBy("start_time ASC, instructor_name ASC")

	if sport != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sport": *sport})
	}
	if instructorID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"instructor_id": *instructorID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAvailableInstructorSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAvailableInstructorSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanInstructorSlots(rows, "ListAvailableInstructorSlots")
}

// GetInstructorSlot получает слот инструктора по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetInstructorSlot(ctx context.Context, id int64) (*domain.InstructorSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(instructorSlotColumns...).
		From("instructor_slots").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstructorSlot - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.InstructorSlot
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.InstructorID,
		&s.InstructorName,
		&s.Sport,
		&s.Date,
		&s.StartTime,
		&s.DurationMinutes,
		&s.Status,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstructorSlot - scan slot: %v", ErrScanRow, err)
	}

	return &s, nil
}

// UpdateInstructorSlotStatus устанавливает статус слота инструктора
func (r *Repository) UpdateInstructorSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("instructor_slots").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateInstructorSlotStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateInstructorSlotStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateInstructorSlotStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

func (r *Repository) scanInstructorSlots(rows *sql.Rows, method string) ([]*domain.InstructorSlot, error) {
	slots := make([]*domain.InstructorSlot, 0)

	for rows.Next() {
		var s domain.InstructorSlot
		err := rows.Scan(
			&s.ID,
			&s.InstructorID,
			&s.InstructorName,
			&s.Sport,
			&s.Date,
			&s.StartTime,
			&s.DurationMinutes,
			&s.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}
		slots = append(slots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return slots, nil
}

// ---- Настройки расписания ----

// GetMaxScheduleDate получает максимальную дату опубликованного
// расписания тренажёра (горизонт бронирования)
func (r *Repository) GetMaxScheduleDate(ctx context.Context) (time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("max_schedule_date").
		From("schedule_settings").
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: GetMaxScheduleDate - build select query: %v", ErrBuildQuery, err)
	}

	var maxDate time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&maxDate)

	if err == sql.ErrNoRows {
		return time.Time{}, ErrMaxDateNotConfigured
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: GetMaxScheduleDate - scan date: %v", ErrScanRow, err)
	}

	return maxDate, nil
}

func scanDates(rows *sql.Rows, method string) ([]time.Time, error) {
	dates := make([]time.Time, 0)

	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%w: %s - scan date: %v", ErrScanRow, method, err)
		}
		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return dates, nil
}
