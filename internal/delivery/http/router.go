package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventparticipation/internal/delivery/http/controllers"
	"eventparticipation/internal/delivery/http/helpers"
	"eventparticipation/internal/delivery/http/middleware"
	"eventparticipation/internal/domain"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Participation  *controllers.ParticipationController
	Statistics     *controllers.StatisticsController
	Verifier       domain.TokenVerifier
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)

	// Participation
	mux.HandleFunc("POST /events/{eventID}/participation", auth(cfg.Participation.JoinEvent))
	mux.HandleFunc("DELETE /events/{eventID}/participation", auth(cfg.Participation.LeaveEvent))
	mux.HandleFunc("GET /participations", auth(cfg.Participation.ListParticipations))

	// Statistics
	mux.HandleFunc("GET /events/{eventID}/statistics", auth(cfg.Statistics.GetEventStatistics))
	mux.HandleFunc("GET /organizer/statistics", auth(middleware.RequireOrganizer(cfg.Statistics.GetOrganizerStatistics)))

	// Ops
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
