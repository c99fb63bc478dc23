package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Robinhohocepied/mediflow/internal/api/router"
	"github.com/Robinhohocepied/mediflow/internal/booking"
	"github.com/Robinhohocepied/mediflow/internal/bookings"
	"github.com/Robinhohocepied/mediflow/internal/calendar"
	"github.com/Robinhohocepied/mediflow/internal/config"
	"github.com/Robinhohocepied/mediflow/internal/engine"
	"github.com/Robinhohocepied/mediflow/internal/observability/metrics"
	"github.com/Robinhohocepied/mediflow/internal/schedule"
	"github.com/Robinhohocepied/mediflow/internal/session"
	"github.com/Robinhohocepied/mediflow/internal/webdemo"
	"github.com/Robinhohocepied/mediflow/internal/whatsapp"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	if cfg.RedactLogs {
		logger = logging.NewRedacted(cfg.LogLevel)
	}
	logger.Info("starting mediflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.ClinicTimezone,
	)

	ctx := context.Background()

	// Session store: Redis when configured, in-process otherwise.
	var store session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = session.NewRedisStore(client, cfg.SessionTTL)
		logger.Info("session store", "backend", "redis", "ttl", cfg.SessionTTL.String())
	} else {
		logger.Warn("session store", "backend", "memory")
	}

	oracle := calendar.FromConfig(ctx, cfg, logger)
	committer := booking.NewCommitter(oracle, logger)

	// Booking archive is optional; the dialogue works without Postgres.
	var archive *bookings.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = bookings.NewRepository(pool)
		if err := archive.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure bookings schema", "error", err)
			os.Exit(1)
		}
		logger.Info("booking archive enabled")
	}

	engineMetrics := metrics.NewEngineMetrics(nil)

	eng := engine.New(engine.Options{
		Oracle:    oracle,
		Committer: committer,
		Metrics:   engineMetrics,
		Logger:    logger,
		Location:  cfg.Location(),
		Duration:  cfg.AppointmentDuration,
		Slots: schedule.Options{
			Duration:           cfg.AppointmentDuration,
			SearchDays:         cfg.SlotSearchDays,
			FallbackHour:       cfg.SlotFallbackHour,
			FallbackBoundDays:  90,
			MorningOpenHour:    cfg.MorningOpenHour,
			MorningCloseHour:   cfg.MorningCloseHour,
			AfternoonOpenHour:  cfg.AfternoonOpenHour,
			AfternoonCloseHour: cfg.AfternoonCloseHour,
		},
		SendInvitations:      cfg.CalendarSendUpdates,
		IdentityMaxFailures:  cfg.IdentityMaxFailures,
		TriageScoreThreshold: cfg.TriageEscalationScore,
		ReminderHours:        cfg.ReminderHoursBefore,
	})

	var archiver engine.Archiver
	if archive != nil {
		archiver = archive
	}
	svc := engine.NewService(store, eng, archiver, engineMetrics, logger)

	waClient := whatsapp.NewClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID, cfg.WhatsAppBaseURL, cfg.WhatsAppDryRun, logger)
	waAdapter := whatsapp.NewAdapter(cfg.WhatsAppVerifyToken, waClient, svc, logger)
	demoHandler := webdemo.NewHandler(svc, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		WhatsApp:       waAdapter,
		Demo:           demoHandler,
		MetricsHandler: promhttp.Handler(),
		BookingArchive: archive,
		AdminToken:     cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
