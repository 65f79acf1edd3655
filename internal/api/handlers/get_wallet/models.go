package get_wallet

import (
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
)

// LedgerEntryResponse запись журнала операций кошелька
type LedgerEntryResponse struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"` // со знаком: списание отрицательное
	Type        string  `json:"type"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"createdAt"`
}

// StatementResponse кошелёк с последними операциями
type StatementResponse struct {
	WalletNumber string                `json:"walletNumber"`
	Balance      float64               `json:"balance"`
	Entries      []LedgerEntryResponse `json:"entries"`
}

// FromStatement конвертирует выписку сервиса в HTTP response
func FromStatement(s *wallet.Statement) *StatementResponse {
	entries := make([]LedgerEntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, LedgerEntryResponse{
			ID:          e.ID,
			Amount:      e.Signed(),
			Type:        string(e.Type),
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}

	return &StatementResponse{
		WalletNumber: s.Wallet.Number,
		Balance:      s.Wallet.Balance,
		Entries:      entries,
	}
}
