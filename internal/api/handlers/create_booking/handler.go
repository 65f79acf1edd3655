package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SkiSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/SkiSchool-BookingService/internal/api/middleware"
	createBooking "github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody     = "некорректное тело запроса"
	msgInvalidDateOrTime      = "некорректный формат даты или времени"
	msgUnauthorized           = "пользователь не определен"
	msgClientNotFound         = "клиент не найден"
	msgDependentNotFound      = "участник не найден"
	msgResourceNotFound       = "ресурс не найден"
	msgSlotNotAvailable       = "выбранный слот недоступен"
	msgCapacityExceeded       = "в группе недостаточно свободных мест"
	msgDateInPast             = "дата тренировки уже прошла"
	msgDateBeyondHorizon      = "расписание на эту дату еще не опубликовано"
	msgSkillTooLow            = "уровень подготовки участника недостаточен"
	msgAgeNotEligible         = "возраст участника не подходит для группы"
	msgInsufficientFunds      = "недостаточно средств на кошельке"
	msgNoSubscription         = "нет активного абонемента"
	msgSubscriptionExhausted  = "занятия на абонементе закончились"
	msgSubscriptionExpired    = "срок действия абонемента истек"
	msgSubscriptionNotAllowed = "эту тренировку нельзя оплатить абонементом"
	msgInvalidInput           = "некорректные параметры бронирования"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrClientNotFound):
			h.logger.Warn("POST /bookings - Client not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgClientNotFound)

		case errors.Is(err, createBooking.ErrDependentNotFound):
			h.logger.Warn("POST /bookings - Dependent not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgDependentNotFound)

		case errors.Is(err, createBooking.ErrResourceNotFound):
			h.logger.Warn("POST /bookings - Resource not found: client_id=%d, class=%s", clientID, req.ResourceClass)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: client_id=%d, class=%s", clientID, req.ResourceClass)
			handlers.RespondError(w, http.StatusConflict, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrCapacityExceeded):
			h.logger.Warn("POST /bookings - Capacity exceeded: client_id=%d, resource_id=%d", clientID, req.ResourceID)
			handlers.RespondError(w, http.StatusConflict, msgCapacityExceeded)

		case errors.Is(err, createBooking.ErrDateInPast):
			h.logger.Warn("POST /bookings - Date in past: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, createBooking.ErrDateBeyondHorizon):
			h.logger.Warn("POST /bookings - Date beyond schedule horizon: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgDateBeyondHorizon)

		case errors.Is(err, createBooking.ErrSkillTooLow):
			h.logger.Warn("POST /bookings - Skill too low: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgSkillTooLow)

		case errors.Is(err, createBooking.ErrAgeNotEligible):
			h.logger.Warn("POST /bookings - Age not eligible: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgAgeNotEligible)

		case errors.Is(err, createBooking.ErrInsufficientFunds):
			h.logger.Warn("POST /bookings - Insufficient funds: client_id=%d", clientID)
			handlers.RespondError(w, http.StatusConflict, msgInsufficientFunds)

		case errors.Is(err, createBooking.ErrNoSubscription):
			h.logger.Warn("POST /bookings - No active subscription: client_id=%d", clientID)
			handlers.RespondError(w, http.StatusConflict, msgNoSubscription)

		case errors.Is(err, createBooking.ErrSubscriptionExhausted):
			h.logger.Warn("POST /bookings - Subscription exhausted: client_id=%d", clientID)
			handlers.RespondError(w, http.StatusConflict, msgSubscriptionExhausted)

		case errors.Is(err, createBooking.ErrSubscriptionExpired):
			h.logger.Warn("POST /bookings - Subscription expired: client_id=%d", clientID)
			handlers.RespondError(w, http.StatusConflict, msgSubscriptionExpired)

		case errors.Is(err, createBooking.ErrSubscriptionNotAllowed):
			h.logger.Warn("POST /bookings - Subscription not allowed: client_id=%d, class=%s", clientID, req.ResourceClass)
			handlers.RespondBadRequest(w, msgSubscriptionNotAllowed)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: client_id=%d, error=%v", clientID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, client_id=%d, class=%s, payment=%s",
		result.ID, clientID, result.ResourceClass, result.PaymentMethod)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
