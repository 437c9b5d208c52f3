package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/config"
	"github.com/coldread-dev/coldread/internal/logger"
	"github.com/coldread-dev/coldread/internal/models"
	"github.com/coldread-dev/coldread/internal/server"
	"github.com/coldread-dev/coldread/internal/tasks"
	"github.com/coldread-dev/coldread/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init("coldread-worker", cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Str("version", version).Msg("Starting coldread worker")

	schedule, err := workers.ParseSchedule(cfg.Usage.ResetSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	db, err := server.OpenDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	if _, err := server.EnsureSettings(db, time.Now()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	if !cfg.Email.Enabled() {
		log.Warn().Msg("SMTP_HOST not set - account emails will be logged, not sent")
	}
	mailer := workers.NewMailer(cfg, log)

	// Client for the usage scheduler
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6, // account emails
				tasks.QueueDefault:  3,
				"low":               1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeSendVerificationEmail, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSendVerificationEmail(ctx, t, mailer, log)
	})
	mux.HandleFunc(tasks.TypeSendPasswordResetEmail, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSendPasswordResetEmail(ctx, t, mailer, log)
	})
	mux.HandleFunc(tasks.TypeResetUsagePeriod, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleResetUsagePeriod(ctx, t, db, time.Now, log)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go workers.StartUsageScheduler(ctx, asynqClient, db, schedule, log)

	if err := asynqServer.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("Asynq worker server failed")
	}

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	asynqServer.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger adapts zerolog to Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...any) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...any) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...any) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...any) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...any) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
