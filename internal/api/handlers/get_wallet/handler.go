package get_wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SkiSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/SkiSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
)

const (
	msgUnauthorized   = "пользователь не определен"
	msgWalletNotFound = "кошелёк не найден"
	msgInvalidLimit   = "некорректный параметр limit"
)

const defaultStatementLimit = 10

type Handler struct {
	service WalletService
	logger  Logger
}

func NewHandler(service WalletService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/wallet?limit=10
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	limit := defaultStatementLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.logger.Warn("GET /wallet - Invalid limit: %q", raw)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		limit = parsed
	}

	statement, err := h.service.GetStatement(r.Context(), clientID, limit)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			h.logger.Warn("GET /wallet - Wallet not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgWalletNotFound)
			return
		}
		h.logger.Error("GET /wallet - Failed to get statement: client_id=%d, error=%v", clientID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /wallet - Statement retrieved: client_id=%d, entries=%d", clientID, len(statement.Entries))
	handlers.RespondJSON(w, http.StatusOK, FromStatement(statement))
}
