package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/guardforce-backend/api/controllers"
	"github.com/angelmondragon/guardforce-backend/api/middleware"
	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/internal/assignments"
	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/pkg/config"
	"github.com/angelmondragon/guardforce-backend/pkg/db"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/redis"
)

const (
	monitorRateWindow = time.Minute
	monitorRateLimit  = 6
)

// Dependencies is everything the HTTP surface needs.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Metrics       prometheus.Gatherer
	Kanban        controllers.KanbanService
	Shifts        shifts.Service
	Assignments   assignments.Service
	Alerts        alerts.Service
	Monitor       controllers.AlertMonitor
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	ready := map[string]controllers.Pinger{}
	if deps.DB != nil {
		ready["db"] = deps.DB
	}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	monitorPolicy := middleware.NewRateLimitPolicy("alerts-monitor", monitorRateWindow, monitorRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/kanban", controllers.GetKanbanBoard(deps.Kanban, logg))

		r.Post("/shifts", controllers.CreateShift(deps.Shifts, logg))
		r.Post("/shifts/bulk", controllers.ExecuteBulkAction(deps.Kanban, logg))
		r.Get("/shifts/bulk/{operationID}", controllers.GetBulkOperation(deps.Kanban, logg))
		r.Route("/shifts/{shiftID}", func(r chi.Router) {
			r.Get("/", controllers.GetShift(deps.Shifts, logg))
			r.Get("/history", controllers.ShiftHistory(deps.Shifts, logg))
			r.Get("/transitions", controllers.AllowedTransitions(deps.Shifts, logg))
			r.Post("/move", controllers.MoveShift(deps.Kanban, logg))
			r.Get("/assignments", controllers.ListAssignments(deps.Assignments, logg))
			r.Post("/assignments", controllers.AssignGuard(deps.Assignments, logg))
			r.Post("/assignments/{assignmentID}/confirm", controllers.ConfirmAssignment(deps.Assignments, logg))
			r.Post("/assignments/{assignmentID}/cancel", controllers.CancelAssignment(deps.Assignments, logg))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(deps.Alerts, logg))
			monitor := r.With()
			if deps.Redis != nil {
				monitor = r.With(middleware.RateLimit(monitorPolicy, deps.Redis, logg))
			}
			monitor.Post("/monitor", controllers.RunMonitor(deps.Monitor, logg))
			r.Get("/{alertID}", controllers.GetAlert(deps.Alerts, logg))
			r.Post("/{alertID}/acknowledge", controllers.AcknowledgeAlert(deps.Alerts, logg))
			r.Post("/{alertID}/resolve", controllers.ResolveAlert(deps.Alerts, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})
	})

	return r
}
