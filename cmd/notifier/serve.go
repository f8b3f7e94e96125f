package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anniversary_notifier/internal/app"
	"anniversary_notifier/internal/infra/config"
	idb "anniversary_notifier/internal/infra/database"
	"anniversary_notifier/internal/infra/httpapi"
	"anniversary_notifier/internal/infra/logger"
	"anniversary_notifier/internal/infra/queue"
	"anniversary_notifier/internal/infra/scheduler"
	"anniversary_notifier/internal/infra/telegram"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCommand(getConfig func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the run queue worker, the admin HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), getConfig())
		},
	}
}

func serve(parent context.Context, cfg *config.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainLogger := logger.Component("main")
	mainLogger.Info("Anniversary notifier starting...")

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := idb.Migrate(ctx, c.db); err != nil {
		return err
	}
	mainLogger.Info("Database schema is up to date.")

	runQueue, err := newQueue(cfg)
	if err != nil {
		return err
	}
	defer runQueue.Close()

	registrar := scheduler.NewRegistrar(c.schedules, func(ctx context.Context) error {
		return runQueue.Enqueue(ctx, queue.RunRequest{
			RunID:       uuid.NewString(),
			RequestedAt: time.Now(),
			Trigger:     queue.TriggerSchedule,
		})
	}, cfg.Location(), logger.Component("scheduler"))

	restored, err := registrar.Restore(ctx)
	if err != nil {
		return err
	}
	if restored == 0 && cfg.DefaultSchedule != "" {
		hour, minute, err := config.ParseHHMM(cfg.DefaultSchedule)
		if err != nil {
			return err
		}
		if _, err := registrar.ScheduleDaily(ctx, scheduler.DefaultJobName, hour, minute); err != nil {
			return fmt.Errorf("could not register default schedule: %w", err)
		}
	}

	adminService := app.NewAdminService(c.settings, c.finder, c.tracking, runQueue, registrar)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		workerLogger := logger.Component("worker")
		err := runQueue.Consume(ctx, func(ctx context.Context, req queue.RunRequest) {
			workerLogger.WithField("run_id", req.RunID).WithField("trigger", req.Trigger).Info("Run request received")
			c.batch.Run(ctx, req.RunID)
		})
		if err != nil {
			workerLogger.WithError(err).Error("Run queue consumer stopped, shutting down")
			stop()
		}
	}()

	registrar.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(adminService, c.metrics.Handler(), logger.Component("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("Admin HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	if c.bot != nil {
		telegram.RegisterAdminHandlers(ctx, c.bot, adminService, cfg.AdminTelegramID, logger.Component("telegram"))
		go c.bot.Start()
		mainLogger.Info("Telegram bot started.")
	}

	mainLogger.Info("Application setup complete.")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	registrar.Stop()
	if c.bot != nil {
		c.bot.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown")
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		mainLogger.Warn("Worker did not stop before the shutdown timeout")
	}
	mainLogger.Info("Application shut down gracefully.")
	return nil
}

func newQueue(cfg *config.AppConfig) (queue.Queue, error) {
	if cfg.QueueDriver == config.QueueDriverAMQP {
		q, err := queue.NewAMQPQueue(cfg.AMQPURL, cfg.AMQPQueue, logger.Component("queue"))
		if err != nil {
			return nil, err
		}
		logger.Log.WithField("queue", cfg.AMQPQueue).Info("Using RabbitMQ run queue")
		return q, nil
	}
	return queue.NewMemoryQueue(16), nil
}
