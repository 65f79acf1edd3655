package dialog_message

import (
	"net/http"

	"github.com/m04kA/SkiSchool-BookingService/internal/api/handlers"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTgUserID    = "некорректный tgUserId"
)

type Handler struct {
	controller DialogController
	logger     Logger
}

func NewHandler(controller DialogController, logger Logger) *Handler {
	return &Handler{
		controller: controller,
		logger:     logger,
	}
}

// Handle POST /api/v1/dialog/messages
// Внутренний endpoint для бот-шлюза: шлюз аутентифицирует пользователя
// Telegram и транслирует сообщения сюда
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req DialogMessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /dialog/messages - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if req.TgUserID <= 0 {
		h.logger.Warn("POST /dialog/messages - Invalid tg user ID: %d", req.TgUserID)
		handlers.RespondBadRequest(w, msgInvalidTgUserID)
		return
	}

	reply, err := h.controller.HandleMessage(r.Context(), req.TgUserID, req.Text)
	if err != nil {
		h.logger.Error("POST /dialog/messages - Failed to handle message: tg_user=%d, error=%v",
			req.TgUserID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /dialog/messages - Message handled: tg_user=%d", req.TgUserID)
	handlers.RespondJSON(w, http.StatusOK, FromReply(reply))
}
