package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"eventparticipation/internal/delivery/http/helpers"
	"eventparticipation/internal/delivery/http/middleware"
	"eventparticipation/internal/domain"
)

// maxEventIDsPerQuery bounds the event_ids list accepted by GET /participations.
const maxEventIDsPerQuery = 100

// ParticipationSuccessResponse is the success response envelope for join and leave.
type ParticipationSuccessResponse struct {
	Data  *domain.Participation `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ParticipationStatusesSuccessResponse is the success response envelope for GET /participations.
// Data maps event ID to the caller's participation status; events without a participation are omitted.
type ParticipationStatusesSuccessResponse struct {
	Data  map[string]domain.ParticipationStatus `json:"data"`
	Error *helpers.APIError                     `json:"error"`
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinEvent godoc
// @Summary Join an event
// @Description Registers the caller for the event, or places them on the waitlist when the event is full. A previously cancelled participation is reinstated.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.ParticipationSuccessResponse "data.status is REGISTERED or WAITLISTED"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_not_joinable or already_registered"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participation [post]
func (c *ParticipationController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.JoinEvent(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// LeaveEvent godoc
// @Summary Leave an event
// @Description Cancels the caller's participation. When a confirmed slot is freed, the earliest waitlisted participant is promoted and notified.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data.status is CANCELLED"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found or not_registered"
// @Failure 409 {object} helpers.APIResponse "error.code: already_cancelled"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participation [delete]
func (c *ParticipationController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.LeaveEvent(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// ListParticipations godoc
// @Summary Get the caller's participation statuses
// @Description Returns the caller's participation status for each requested event. Events the caller never joined are omitted.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param event_ids query string true "Comma-separated event IDs"
// @Success 200 {object} controllers.ParticipationStatusesSuccessResponse "data maps event ID to status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /participations [get]
func (c *ParticipationController) ListParticipations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventIDs := splitEventIDs(r.URL.Query().Get("event_ids"))
	if len(eventIDs) == 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event_ids is required")
		return
	}
	if len(eventIDs) > maxEventIDsPerQuery {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "too many event_ids")
		return
	}
	for _, id := range eventIDs {
		if _, err := uuid.Parse(id); err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event id "+id)
			return
		}
	}
	statuses, err := c.Service.GetParticipationsForEvents(r.Context(), userID, eventIDs)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, statuses)
}

// eventIDFromPath reads and validates the eventID path value, writing a 400 when it is not a UUID.
func eventIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	if _, err := uuid.Parse(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return "", false
	}
	return eventID, true
}

func splitEventIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
