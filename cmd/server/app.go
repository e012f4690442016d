package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/platform/rabbitmq"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	tokens      auth.TokenService
	authService *auth.Service
	taskService service.TaskService

	dispatcher notify.Dispatcher
	jobRunner  *job.Runner
	publisher  *rabbitmq.Publisher
}

// newApplication wires stores, services and the notification transport.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokens, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.authService = auth.NewService(app.userStore, app.tokens, auth.NewBcryptVerifier(), logger)

	app.dispatcher, err = app.setupNotifications()
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to set up notifications: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, policy.NewGate(), app.dispatcher, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.InfoContext(ctx, "application initialized")
	return app, nil
}

// setupNotifications returns the dispatcher for the configured transport.
func (app *application) setupNotifications() (notify.Dispatcher, error) {
	cfg := app.config

	if cfg.Notify.Transport == config.TransportRabbitMQ {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, err
		}
		app.publisher = publisher
		app.logger.Info("notifications published to RabbitMQ", "exchange", cfg.RabbitMQ.Exchange)
		return notify.NewBrokerDispatcher(publisher, app.logger), nil
	}

	sender, err := mail.NewSender(cfg.Mail, app.logger)
	if err != nil {
		return nil, err
	}

	runner, err := startJobRunner(postgres.NewPostgresJobStore(app.db, app.logger), sender, cfg.Notify, app.logger)
	if err != nil {
		return nil, err
	}
	app.jobRunner = runner

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.RegisterHandler(notify.NewNotificationEventHandler(runner, sender, app.logger))
	return notify.NewEventDispatcher(emitter, app.logger), nil
}

// startJobRunner builds and starts the mail job runner on jobs.
func startJobRunner(
	jobs job.Store,
	sender mail.Sender,
	cfg config.NotifyConfig,
	logger *slog.Logger,
) (*job.Runner, error) {
	registry := job.NewRegistry()
	notify.RegisterJobs(registry, sender)

	runner := job.NewRunner(jobs, registry, runnerConfig(cfg), logger)
	runner.SetErrorHandler(func(j job.Job, err error) {
		logger.Error("notification dead-lettered",
			"job_id", j.ID(),
			"job_type", j.Type(),
			"error", err)
	})

	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}
	logger.Info("notification job runner started",
		"workers", cfg.WorkerCount,
		"max_attempts", cfg.MaxAttempts)
	return runner, nil
}

func runnerConfig(cfg config.NotifyConfig) job.RunnerConfig {
	rc := job.DefaultRunnerConfig()
	rc.WorkerCount = cfg.WorkerCount
	rc.QueueSize = cfg.QueueSize
	rc.MaxAttempts = cfg.MaxAttempts
	rc.RetryBackoff = time.Duration(cfg.RetryBackoffSeconds) * time.Second
	rc.StuckJobAge = time.Duration(cfg.StuckJobAgeMinutes) * time.Minute
	return rc
}

// Run serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work. The database is closed by the caller.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing RabbitMQ publisher", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
