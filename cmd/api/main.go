package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oakpoint-health/clinic-ops/internal/api/router"
	"github.com/oakpoint-health/clinic-ops/internal/appointments"
	"github.com/oakpoint-health/clinic-ops/internal/billing"
	appconfig "github.com/oakpoint-health/clinic-ops/internal/config"
	"github.com/oakpoint-health/clinic-ops/internal/http/handlers"
	"github.com/oakpoint-health/clinic-ops/internal/notify"
	"github.com/oakpoint-health/clinic-ops/internal/observability/metrics"
	"github.com/oakpoint-health/clinic-ops/internal/reminders"
	"github.com/oakpoint-health/clinic-ops/internal/schedlock"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-ops API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic", cfg.ClinicName,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	metricsHandler, schedMetrics := setupSchedulingMetrics()

	apptRepo := appointments.NewPostgresRepository(pool)
	invoiceRepo := billing.NewPostgresRepository(pool)
	directory := reminders.NewPostgresDirectory(pool)

	notifySvc := notify.NewService(
		buildEmailSender(ctx, cfg, logger),
		buildSMSSender(cfg, logger),
		cfg.ClinicName,
		logger,
	)
	dispatcher := reminders.NewDispatcher(apptRepo, invoiceRepo, directory, notifySvc, loc, schedMetrics, logger)

	policy := appointments.TimePolicy{
		OpenHour:       cfg.OpenHour,
		CloseHour:      cfg.CloseHour,
		ClosedWeekends: cfg.ClosedWeekends,
		Location:       loc,
		ConflictWindow: cfg.ConflictWindow,
		SlotStep:       cfg.SlotStep,
	}
	apptSvc := appointments.NewService(apptRepo, buildProviderLocker(cfg, logger), policy, dispatcher, schedMetrics, logger)
	billingSvc := billing.NewService(invoiceRepo, dispatcher, logger)

	worker, err := buildReminderWorker(cfg, loc, dispatcher, logger)
	if err != nil {
		logger.Error("invalid reminder schedule", "error", err)
		os.Exit(1)
	}
	if cfg.RemindersEnabled {
		go worker.Start(ctx)
	} else {
		logger.Info("daily reminder triggers disabled")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Appointments:       handlers.NewAppointmentsHandler(apptSvc, loc, logger),
		Billing:            handlers.NewBillingHandler(billingSvc, logger),
		Reminders:          handlers.NewRemindersHandler(worker, logger),
		MetricsHandler:     metricsHandler,
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
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
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// connectPostgresPool opens a pgx pool, or returns nil when no URL is
// configured so callers can decide how to fail.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// setupSchedulingMetrics builds a dedicated registry with the
// scheduling collectors and its scrape handler.
func setupSchedulingMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSchedulingMetrics(reg)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler, m
}

// buildEmailSender selects the configured email backend. The stub is
// the default so local development never needs provider credentials.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY missing, using stub email sender")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("failed to load AWS config, using stub email sender", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		return notify.NewStubEmailSender(logger)
	}
}

// buildSMSSender selects the SMS backend. The webhook mode posts each
// message to a carrier gateway URL.
func buildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if cfg.SMSProvider != "webhook" || cfg.SMSWebhookURL == "" {
		return notify.NewStubSMSSender(logger)
	}
	webhookURL := cfg.SMSWebhookURL
	client := &http.Client{Timeout: 10 * time.Second}
	send := func(ctx context.Context, to, from, body string) error {
		payload, err := json.Marshal(map[string]string{"to": to, "from": from, "body": body})
		if err != nil {
			return fmt.Errorf("marshal sms payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build sms request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("post sms webhook: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sms webhook returned status %d", resp.StatusCode)
		}
		return nil
	}
	return notify.NewSimpleSMSSender(cfg.SMSFromNumber, send, logger)
}

// buildProviderLocker uses Redis when configured so conflict checks
// serialize across replicas, otherwise an in-process mutex.
func buildProviderLocker(cfg *appconfig.Config, logger *logging.Logger) schedlock.ProviderLocker {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process provider locks")
		return schedlock.NewMutexLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	logger.Info("using redis provider locks", "addr", cfg.RedisAddr)
	return schedlock.NewRedisLocker(client, cfg.LockTTL)
}

// buildReminderWorker wires the two daily scans to their wall-clock
// triggers.
func buildReminderWorker(cfg *appconfig.Config, loc *time.Location, dispatcher *reminders.Dispatcher, logger *logging.Logger) (*reminders.Worker, error) {
	apptAt, err := reminders.ParseTimeOfDay(cfg.AppointmentReminderAt)
	if err != nil {
		return nil, fmt.Errorf("APPOINTMENT_REMINDER_AT: %w", err)
	}
	payAt, err := reminders.ParseTimeOfDay(cfg.PaymentReminderAt)
	if err != nil {
		return nil, fmt.Errorf("PAYMENT_REMINDER_AT: %w", err)
	}
	worker := reminders.NewWorker(loc, logger,
		reminders.Job{Name: "appointments", At: apptAt, Run: dispatcher.RunDailyAppointmentReminders},
		reminders.Job{Name: "payments", At: payAt, Run: dispatcher.RunDailyPaymentReminders},
	)
	return worker, nil
}

func splitOrigins(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
