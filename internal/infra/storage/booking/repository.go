package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с бронированиями и их участниками
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var bookingColumns = []string{
	"id",
	"client_id",
	"resource_class",
	"resource_id",
	"date",
	"start_time",
	"duration_minutes",
	"sport",
	"price",
	"payment_method",
	"status",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Create создает бронирование вместе с участниками
// Вызывается только внутри транзакции транзактора бронирования
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"client_id",
			"resource_class",
			"resource_id",
			"date",
			"start_time",
			"duration_minutes",
			"sport",
			"price",
			"payment_method",
			"status",
		).
		Values(
			booking.ClientID,
			booking.ResourceClass,
			booking.ResourceID,
			booking.Date,
			booking.StartTime,
			booking.DurationMinutes,
			booking.Sport,
			booking.Price,
			booking.PaymentMethod,
			booking.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	for i := range booking.Participants {
		p := &booking.Participants[i]
		p.BookingID = booking.ID

		query, args, err := psqlbuilder.Insert("booking_participants").
			Columns("booking_id", "dependent_id", "name", "age").
			Values(p.BookingID, p.DependentID, p.Name, p.Age).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Create - build participant insert: %v", ErrBuildQuery, err)
		}

		if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
			return nil, fmt.Errorf("%w: Create - insert participant: %v", ErrExecQuery, err)
		}
	}

	return booking, nil
}

// GetByID получает бронирование с участниками по ID
// Внутри транзакции строка бронирования блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := r.scanBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}

	booking := bookings[0]
	if err := r.attachParticipants(ctx, []*domain.Booking{booking}); err != nil {
		return nil, err
	}

	return booking, nil
}

// ListByClient получает бронирования клиента, новые первыми
func (r *Repository) ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("date DESC, start_time DESC")

	if !includeInactive {
		inactive := make([]string, len(domain.InactiveBookingStatuses))
		for i, s := range domain.InactiveBookingStatuses {
			inactive[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": inactive})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := r.scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// ListActiveByResource получает активные бронирования ресурса с участниками
// Внутри транзакции строки блокируются (FOR UPDATE) - переагрегация занятости
// при бронировании и отмене читает именно этот срез
func (r *Repository) ListActiveByResource(ctx context.Context, class domain.ResourceClass, resourceID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	active := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		active[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"resource_class": class,
			"resource_id":    resourceID,
			"status":         active,
		}).
		OrderBy("created_at ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByResource - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByResource - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := r.scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// CountActiveParticipants возвращает живой агрегат занятости ресурса:
// суммарное количество участников активных бронирований
// Предпочитается денормализованному счётчику при любом расхождении
func (r *Repository) CountActiveParticipants(ctx context.Context, class domain.ResourceClass, resourceID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	active := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		active[i] = string(s)
	}

	query, args, err := psqlbuilder.Select("COUNT(bp.id)").
		From("bookings b").
		Join("booking_participants bp ON bp.booking_id = b.id").
		Where(squirrel.Eq{
			"b.resource_class": class,
			"b.resource_id":    resourceID,
			"b.status":         active,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveParticipants - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveParticipants - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// Cancel помечает бронирование отменённым (смена статуса, не удаление)
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingCancelled).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// Delete физически удаляет бронирование вместе с участниками
// Используется только для legacy-представления индивидуальных тренировок
// на тренажёре - для всех остальных классов ресурсов применяется Cancel
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_participants").
		Where(squirrel.Eq{"booking_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build participants delete: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Delete - delete participants: %v", ErrExecQuery, err)
	}

	query, args, err = psqlbuilder.Delete("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&b.ID,
			&b.ClientID,
			&b.ResourceClass,
			&b.ResourceID,
			&b.Date,
			&b.StartTime,
			&b.DurationMinutes,
			&b.Sport,
			&b.Price,
			&b.PaymentMethod,
			&b.Status,
			&b.CancelledAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}

		b.CreatedAt = createdAt.Time
		b.UpdatedAt = updatedAt.Time

		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// attachParticipants загружает участников для переданных бронирований
func (r *Repository) attachParticipants(ctx context.Context, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	ids := make([]int64, len(bookings))
	byID := make(map[int64]*domain.Booking, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		byID[b.ID] = b
		b.Participants = make([]domain.BookingParticipant, 0, 1)
	}

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"dependent_id",
		"name",
		"age",
	).
		From("booking_participants").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.BookingParticipant
		if err := rows.Scan(&p.ID, &p.BookingID, &p.DependentID, &p.Name, &p.Age); err != nil {
			return fmt.Errorf("%w: attachParticipants - scan row: %v", ErrScanRow, err)
		}
		if b, ok := byID[p.BookingID]; ok {
			b.Participants = append(b.Participants, p)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachParticipants - rows error: %v", ErrScanRow, err)
	}

	return nil
}
