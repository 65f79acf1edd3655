package domain

import "time"

// Wallet внутренний предоплатный кошелёк клиента
// Balance - кэшированная проекция суммы записей журнала;
// источником истины является журнал (ledger_entries)
type Wallet struct {
	ID        int64
	ClientID  int64
	Number    string // человекочитаемый номер кошелька
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntryType тип записи журнала
type LedgerEntryType string

const (
	// EntryDebit списание (оплата тренировки)
	EntryDebit LedgerEntryType = "debit"
	// EntryCredit пополнение (возврат, бонус, пополнение счёта)
	EntryCredit LedgerEntryType = "credit"
)

// LedgerEntry append-only запись журнала операций кошелька
// Записи никогда не редактируются и не удаляются - возврат средств
// это новая компенсирующая запись
type LedgerEntry struct {
	ID          int64
	WalletID    int64
	Amount      float64 // всегда положительная, знак определяется типом
	Type        LedgerEntryType
	Description string
	CreatedAt   time.Time
}

// Signed возвращает сумму записи со знаком
func (e *LedgerEntry) Signed() float64 {
	if e.Type == EntryDebit {
		return -e.Amount
	}
	return e.Amount
}
