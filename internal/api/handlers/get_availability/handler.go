package get_availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/m04kA/SkiSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	"github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
	"github.com/m04kA/SkiSchool-BookingService/pkg/ptr"
)

const (
	msgInvalidClass    = "некорректный класс ресурса"
	msgInvalidDate     = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidDuration = "некорректная длительность тренировки"
	msgInvalidSport    = "некорректный вид спорта"
)

type Handler struct {
	service      AvailabilityService
	timeProvider TimeProvider
	logger       Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service:      service,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// HandleDates GET /api/v1/availability/dates?class=simulator&sport=ski
func (h *Handler) HandleDates(w http.ResponseWriter, r *http.Request) {
	class := domain.ResourceClass(r.URL.Query().Get("class"))
	if class != domain.ClassSimulator && class != domain.ClassInstructor && class != domain.ClassGroup {
		h.logger.Warn("GET /availability/dates - Invalid class: %q", class)
		handlers.RespondBadRequest(w, msgInvalidClass)
		return
	}

	filter := availability.DatesFilter{}
	if sport, ok, valid := parseSport(r); valid {
		if ok {
			filter.Sport = sport
		}
	} else {
		handlers.RespondBadRequest(w, msgInvalidSport)
		return
	}

	dates, err := h.service.ListOpenDates(r.Context(), class, h.timeProvider.Now(), filter)
	if err != nil {
		h.logger.Error("GET /availability/dates - Failed to list dates: class=%s, error=%v", class, err)
		handlers.RespondInternalError(w)
		return
	}

	resp := DatesResponse{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(domain.DateFormat))
	}

	h.logger.Info("GET /availability/dates - Dates retrieved: class=%s, count=%d", class, len(resp.Dates))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleSimulatorTimes GET /api/v1/availability/simulator-times?date=YYYY-MM-DD&durationMinutes=60
func (h *Handler) HandleSimulatorTimes(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r)
	if err != nil {
		h.logger.Warn("GET /availability/simulator-times - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	durationMinutes := domain.DefaultTrainingMinutes
	if raw := r.URL.Query().Get("durationMinutes"); raw != "" {
		durationMinutes, err = strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /availability/simulator-times - Invalid duration: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDuration)
			return
		}
	}

	starts, err := h.service.ListSimulatorStartTimes(r.Context(), date, durationMinutes)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidDuration) {
			h.logger.Warn("GET /availability/simulator-times - Invalid duration: %d", durationMinutes)
			handlers.RespondBadRequest(w, msgInvalidDuration)
			return
		}
		h.logger.Error("GET /availability/simulator-times - Failed to list times: date=%s, error=%v",
			date.Format(domain.DateFormat), err)
		handlers.RespondInternalError(w)
		return
	}

	resp := make([]SimulatorStartResponse, 0, len(starts))
	for _, s := range starts {
		resp = append(resp, SimulatorStartResponse{
			Lane:            s.Lane,
			StartTime:       s.StartTime.String(),
			DurationMinutes: s.DurationMinutes,
		})
	}

	h.logger.Info("GET /availability/simulator-times - Times retrieved: date=%s, count=%d",
		date.Format(domain.DateFormat), len(resp))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleInstructorSlots GET /api/v1/availability/instructor-slots?date=YYYY-MM-DD&sport=ski
func (h *Handler) HandleInstructorSlots(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r)
	if err != nil {
		h.logger.Warn("GET /availability/instructor-slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	sport, _, valid := parseSport(r)
	if !valid {
		handlers.RespondBadRequest(w, msgInvalidSport)
		return
	}

	var instructorID *int64
	if raw := r.URL.Query().Get("instructorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			handlers.RespondBadRequest(w, "некорректный ID инструктора")
			return
		}
		instructorID = ptr.Ptr(id)
	}

	slots, err := h.service.ListInstructorSlots(r.Context(), date, sport, instructorID)
	if err != nil {
		h.logger.Error("GET /availability/instructor-slots - Failed to list slots: date=%s, error=%v",
			date.Format(domain.DateFormat), err)
		handlers.RespondInternalError(w)
		return
	}

	resp := make([]InstructorSlotResponse, 0, len(slots))
	for _, slot := range slots {
		resp = append(resp, toInstructorSlotResponse(slot))
	}

	h.logger.Info("GET /availability/instructor-slots - Slots retrieved: date=%s, count=%d",
		date.Format(domain.DateFormat), len(resp))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleGroupSessions GET /api/v1/availability/group-sessions?date=YYYY-MM-DD&sport=ski&audience=adults
func (h *Handler) HandleGroupSessions(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r)
	if err != nil {
		h.logger.Warn("GET /availability/group-sessions - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	sport, _, valid := parseSport(r)
	if !valid {
		handlers.RespondBadRequest(w, msgInvalidSport)
		return
	}

	var audience *domain.Audience
	if raw := r.URL.Query().Get("audience"); raw != "" {
		a := domain.Audience(raw)
		if a != domain.AudienceAdults && a != domain.AudienceChildren {
			handlers.RespondBadRequest(w, "некорректная аудитория")
			return
		}
		audience = ptr.Ptr(a)
	}

	groups, err := h.service.ListGroupSessions(r.Context(), date, sport, audience)
	if err != nil {
		h.logger.Error("GET /availability/group-sessions - Failed to list sessions: date=%s, error=%v",
			date.Format(domain.DateFormat), err)
		handlers.RespondInternalError(w)
		return
	}

	resp := make([]GroupSessionResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupSessionResponse(g))
	}

	h.logger.Info("GET /availability/group-sessions - Sessions retrieved: date=%s, count=%d",
		date.Format(domain.DateFormat), len(resp))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

func parseDate(r *http.Request) (time.Time, error) {
	return time.ParseInLocation(domain.DateFormat, r.URL.Query().Get("date"), domain.VenueLocation)
}

// parseSport возвращает (sport, задан ли, валиден ли)
func parseSport(r *http.Request) (*domain.Sport, bool, bool) {
	raw := r.URL.Query().Get("sport")
	if raw == "" {
		return nil, false, true
	}
	sport := domain.Sport(raw)
	if sport != domain.SportSki && sport != domain.SportSnowboard {
		return nil, false, false
	}
	return ptr.Ptr(sport), true, true
}
