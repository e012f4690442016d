// Package main runs the notification worker for the rabbitmq transport. It
// consumes task notifications from the broker and mails them to the task
// owner. Failed messages are retried up to notify.max_attempts times, then
// dead-lettered.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
	"github.com/phrazzld/taskboard-api/internal/platform/rabbitmq"
)

const consumerName = "taskboard-notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("notifier failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Notify.Transport != config.TransportRabbitMQ {
		return errors.New("notifier requires notify.transport=rabbitmq")
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	sender, err := mail.NewSender(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("failed to create mail sender: %w", err)
	}

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, consumerName, topology(cfg.RabbitMQ, cfg.Notify.MaxAttempts), log)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error("error closing consumer", "error", err)
		}
	}()

	log.Info("notifier consuming", "queue", cfg.RabbitMQ.Queue, "exchange", cfg.RabbitMQ.Exchange)
	return consumer.Run(ctx, notify.MessageHandler(sender))
}

// topology binds the mail queue to every notification action.
func topology(cfg config.RabbitMQConfig, maxAttempts int) rabbitmq.Topology {
	return rabbitmq.Topology{
		Exchange: cfg.Exchange,
		Queue:    cfg.Queue,
		Bindings: []string{
			notify.ActionCreated.RoutingKey(),
			notify.ActionCompleted.RoutingKey(),
		},
		DeadLetterExchange: cfg.DeadLetterExchange,
		Prefetch:           cfg.Prefetch,
		MaxAttempts:        maxAttempts,
	}
}
