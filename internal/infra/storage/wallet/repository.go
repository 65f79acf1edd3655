package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с кошельками и журналом операций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория кошельков
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByClientID получает кошелёк клиента
// Внутри транзакции строка блокируется (FOR UPDATE) - баланс мутирует
// только транзактор бронирования/отмены под блокировкой
func (r *Repository) GetByClientID(ctx context.Context, clientID int64) (*domain.Wallet, error) {
	return r.getOne(ctx, squirrel.Eq{"client_id": clientID}, "GetByClientID")
}

// GetByID получает кошелёк по ID с той же семантикой блокировки
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq, method string) (*domain.Wallet, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"client_id",
		"number",
		"balance",
		"created_at",
		"updated_at",
	).
		From("wallets").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	var w domain.Wallet
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&w.ID,
		&w.ClientID,
		&w.Number,
		&w.Balance,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan wallet: %v", ErrScanRow, method, err)
	}

	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return &w, nil
}

// UpdateBalance устанавливает новое значение баланса-проекции
// Вызывается только в паре с InsertEntry внутри одной транзакции
func (r *Repository) UpdateBalance(ctx context.Context, walletID int64, balance float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("wallets").
		Set("balance", balance).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": walletID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}

// InsertEntry добавляет запись в журнал операций
// Журнал append-only: записи никогда не редактируются и не удаляются
func (r *Repository) InsertEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("ledger_entries").
		Columns(
			"wallet_id",
			"amount",
			"type",
			"description",
		).
		Values(
			entry.WalletID,
			entry.Amount,
			entry.Type,
			entry.Description,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: InsertEntry - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: InsertEntry - execute insert: %v", ErrExecQuery, err)
	}

	entry.CreatedAt = createdAt.Time

	return entry, nil
}

// ListEntries получает записи журнала кошелька, новые первыми
// limit <= 0 означает без ограничения
func (r *Repository) ListEntries(ctx context.Context, walletID int64, limit int) ([]*domain.LedgerEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"wallet_id",
		"amount",
		"type",
		"description",
		"created_at",
	).
		From("ledger_entries").
		Where(squirrel.Eq{"wallet_id": walletID}).
		OrderBy("created_at DESC, id DESC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListEntries - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListEntries - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		var createdAt sql.NullTime

		if err := rows.Scan(&e.ID, &e.WalletID, &e.Amount, &e.Type, &e.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: ListEntries - scan row: %v", ErrScanRow, err)
		}

		e.CreatedAt = createdAt.Time
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListEntries - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// SumEntries возвращает сумму записей журнала со знаком
// Используется для сверки баланса-проекции с источником истины
func (r *Repository) SumEntries(ctx context.Context, walletID int64) (float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"COALESCE(SUM(CASE WHEN type = 'debit' THEN -amount ELSE amount END), 0)",
	).
		From("ledger_entries").
		Where(squirrel.Eq{"wallet_id": walletID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SumEntries - build select query: %v", ErrBuildQuery, err)
	}

	var sum float64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: SumEntries - scan sum: %v", ErrScanRow, err)
	}

	return sum, nil
}
