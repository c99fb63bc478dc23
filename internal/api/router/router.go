// Package router assembles the HTTP surface: channel webhooks, the demo
// API, health and metrics.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Robinhohocepied/mediflow/internal/bookings"
	"github.com/Robinhohocepied/mediflow/internal/webdemo"
	"github.com/Robinhohocepied/mediflow/internal/whatsapp"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// Config holds router configuration. Nil handlers disable their routes.
type Config struct {
	Logger         *logging.Logger
	WhatsApp       *whatsapp.Adapter
	Demo           *webdemo.Handler
	MetricsHandler http.Handler

	// BookingArchive enables GET /admin/bookings when set.
	BookingArchive *bookings.Repository
	AdminToken     string
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.WhatsApp != nil {
		r.Route("/webhooks/whatsapp", func(r chi.Router) {
			r.Get("/", cfg.WhatsApp.HandleVerification)
			r.Post("/", cfg.WhatsApp.HandleWebhook)
		})
	}

	if cfg.Demo != nil {
		r.Route("/demo", func(r chi.Router) {
			r.Post("/messages", cfg.Demo.HandleChat)
			r.Post("/reset", cfg.Demo.HandleReset)
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingArchive != nil && cfg.AdminToken != "" {
		r.With(requireAdminToken(cfg.AdminToken)).
			Get("/admin/bookings", listBookings(cfg.BookingArchive))
	}

	return r
}

// requestLogger logs one line per request at info level.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func listBookings(repo *bookings.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repo.ListRecent(r.Context(), 50)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"bookings": records})
	}
}
