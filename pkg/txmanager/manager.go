package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
)

var (
	// ErrSerialization возвращается при serialization failure / deadlock в Postgres
	// Единственный класс ошибок, подлежащий повтору на стороне вызывающего
	ErrSerialization = errors.New("txmanager: transaction serialization failure")

	// ErrBeginTx возвращается при ошибке открытия транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx возвращается при ошибке фиксации транзакции
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")
)

// Postgres error codes, которые трактуются как повторяемые
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// TxBeginner то, что умеет начинать транзакции (*dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции внутри транзакции,
// пробрасывая её в репозитории через контекст
type TransactionManager struct {
	db TxBeginner
}

// NewTransactionManager создает менеджер транзакций поверх обёрнутой метриками БД
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию (read committed)
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{}, fn)
}

// DoSerializable выполняет fn в транзакции с уровнем изоляции serializable
// Используется для операций с проверкой доступности, где критична линеаризуемость
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	// Вложенные транзакции не открываем - переиспользуем существующую
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	txCtx := dbmetrics.WithTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return WrapIfSerialization(err)
	}

	if err := tx.Commit(); err != nil {
		return WrapIfSerialization(fmt.Errorf("%w: %v", ErrCommitTx, err))
	}

	return nil
}

// WrapIfSerialization помечает ошибку как ErrSerialization,
// если её причина - serialization failure или deadlock в Postgres
func WrapIfSerialization(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if code == pqSerializationFailure || code == pqDeadlockDetected {
			return fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	}

	return err
}
