package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attestly/poa-backend/api/controllers"
	"github.com/attestly/poa-backend/api/middleware"
	"github.com/attestly/poa-backend/internal/documents"
	"github.com/attestly/poa-backend/internal/lifecycle"
	"github.com/attestly/poa-backend/internal/notifications"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/internal/powers"
	"github.com/attestly/poa-backend/internal/wizard"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/redis"
	"github.com/attestly/poa-backend/pkg/storage/gcs"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	GCS      gcs.Pinger
	Registry *prometheus.Registry

	Machine       *wizard.Machine
	Autosave      *wizard.AutosaveStore
	POAs          poas.Service
	Lifecycle     lifecycle.Service
	Documents     documents.Service
	Powers        powers.Service
	Notifications notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(d.DB, d.Redis, d.GCS)))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/poas", func(r chi.Router) {
			r.Post("/", controllers.CreatePOA(d.POAs, logg))
			r.Get("/", controllers.ListPOAs(d.POAs, logg))

			r.Route("/{poaId}", func(r chi.Router) {
				r.Get("/", controllers.GetPOA(d.POAs, logg))
				r.Patch("/", controllers.UpdatePOA(d.POAs, logg))
				r.Post("/submit", controllers.SubmitPOA(d.POAs, logg))
				r.Post("/activate", controllers.ActivatePOA(d.Lifecycle, logg))
				r.Post("/revoke", controllers.RevokePOA(d.Lifecycle, logg))

				r.Route("/wizard", func(r chi.Router) {
					r.Post("/next", controllers.WizardNext(d.Machine, d.POAs, logg))
					r.Post("/previous", controllers.WizardPrevious(d.Machine, d.POAs, logg))
					r.Put("/autosave", controllers.WizardAutosave(d.Machine, d.Autosave, d.POAs, logg))
					r.Get("/resume", controllers.WizardResume(d.Machine, d.Autosave, d.POAs, logg))
					r.Delete("/autosave", controllers.WizardDiscard(d.Autosave, d.POAs, logg))
				})

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", controllers.DocumentHistory(d.Documents, d.POAs, logg))
					r.Post("/retry", controllers.DocumentRetry(d.Documents, d.POAs, logg))
					r.Get("/{documentId}/download", controllers.DocumentDownload(d.Documents, d.POAs, cfg.GCS, logg))
				})
			})
		})

		r.Route("/v1/agents", func(r chi.Router) {
			r.Post("/{agentId}/accept", controllers.AcceptAppointment(d.Lifecycle, logg))
			r.Post("/{agentId}/decline", controllers.DeclineAppointment(d.Lifecycle, logg))
		})

		r.Get("/v1/powers", controllers.PowerCatalog(d.Powers, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
		})
	})

	return r
}
