package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oakpoint-health/clinic-ops/internal/http/handlers"
	httpmiddleware "github.com/oakpoint-health/clinic-ops/internal/http/middleware"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Appointments       *handlers.AppointmentsHandler
	Billing            *handlers.BillingHandler
	Reminders          *handlers.RemindersHandler
	MetricsHandler     http.Handler
	JWTSecret          string
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated API
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpmiddleware.AuthContext(cfg.JWTSecret))

		if cfg.Appointments != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.Appointments.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.Appointments.Get)
					r.Post("/approve", cfg.Appointments.Approve)
					r.Post("/reject", cfg.Appointments.Reject)
					r.Post("/reschedule", cfg.Appointments.Reschedule)
					r.Post("/cancel", cfg.Appointments.Cancel)
					r.Put("/status", cfg.Appointments.SetStatus)
				})
			})
			api.Get("/providers/{providerID}/slots", cfg.Appointments.FreeSlots)
		}

		if cfg.Billing != nil {
			api.Route("/invoices", func(r chi.Router) {
				r.Post("/", cfg.Billing.Issue)
				r.Get("/{id}", cfg.Billing.Get)
				r.Post("/{id}/pay", cfg.Billing.MarkPaid)
			})
		}

		if cfg.Reminders != nil {
			api.Post("/admin/reminders/{job}/run", cfg.Reminders.Run)
		}
	})

	return r
}
