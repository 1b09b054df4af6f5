package controllers

import (
	"log/slog"
	"net/http"

	"eventparticipation/internal/delivery/http/helpers"
	"eventparticipation/internal/delivery/http/middleware"
	"eventparticipation/internal/domain"
)

// EventStatisticsSuccessResponse is the success response envelope for GET /events/{eventID}/statistics.
type EventStatisticsSuccessResponse struct {
	Data  *domain.EventStatistics `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// OrganizerStatisticsSuccessResponse is the success response envelope for GET /organizer/statistics.
type OrganizerStatisticsSuccessResponse struct {
	Data  *domain.OrganizerStatistics `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

type StatisticsController struct {
	Logger  *slog.Logger
	Service domain.StatisticsService
}

func NewStatisticsController(logger *slog.Logger, svc domain.StatisticsService) *StatisticsController {
	return &StatisticsController{
		Logger:  logger,
		Service: svc,
	}
}

// GetEventStatistics godoc
// @Summary Get participation statistics for an event
// @Description Returns participation counts, fill rate, and attendance rate for one event. Only the event's organizer or an admin may call this.
// @Tags statistics
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventStatisticsSuccessResponse "data contains the event statistics"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/statistics [get]
func (c *StatisticsController) GetEventStatistics(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.AuthorizeEventAccess(r.Context(), eventID, identity); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	stats, err := c.Service.GetEventStatistics(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// GetOrganizerStatistics godoc
// @Summary Get statistics across the caller's events
// @Description Aggregates participation statistics over every event the caller organizes. Requires the ORGANIZER or ADMIN role.
// @Tags statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.OrganizerStatisticsSuccessResponse "data contains the aggregate and per-event statistics"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /organizer/statistics [get]
func (c *StatisticsController) GetOrganizerStatistics(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.GetOrganizerStatistics(r.Context(), identity.UserID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
