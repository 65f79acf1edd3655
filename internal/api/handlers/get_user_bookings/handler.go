package get_user_bookings

import (
	"net/http"

	"github.com/m04kA/SkiSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/SkiSchool-BookingService/internal/api/middleware"
	getBooking "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/get_booking"
)

const msgUnauthorized = "пользователь не определен"

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings?includeInactive=true
// Возвращает бронирования клиента из X-User-ID
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	includeInactive := r.URL.Query().Get("includeInactive") == "true"

	list, err := h.service.ListByClient(r.Context(), clientID, includeInactive)
	if err != nil {
		h.logger.Error("GET /bookings - Failed to list bookings: client_id=%d, error=%v", clientID, err)
		handlers.RespondInternalError(w)
		return
	}

	resp := make([]*getBooking.BookingResponse, 0, len(list))
	for _, b := range list {
		resp = append(resp, getBooking.FromDomain(b))
	}

	h.logger.Info("GET /bookings - Bookings retrieved: client_id=%d, count=%d", clientID, len(resp))
	handlers.RespondJSON(w, http.StatusOK, resp)
}
