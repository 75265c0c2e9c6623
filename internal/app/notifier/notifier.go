// Package notifier собирает сервис уведомлений: очередь событий оплат и отправку писем.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/fairwaylab/swingcoach/internal/config"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/lib/smtp"
	"github.com/fairwaylab/swingcoach/internal/rabbitmq"
	notifierservice "github.com/fairwaylab/swingcoach/internal/services/notifier"
)

type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	retry    rabbitmq.RetryPolicy
	notifier *notifierservice.Notifier
	logger   *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"
	if !cfg.RabbitMQ.Enabled() {
		return nil, fmt.Errorf("%s: rabbitmq url is required", op)
	}
	if len(cfg.SMTP.AdminEmails) == 0 {
		logger.Warn("no admin e-mails configured, payment requests will only be logged")
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.PaymentQueues(cfg.RabbitMQ.Queue))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:     conn,
		ch:       ch,
		queue:    cfg.RabbitMQ.Queue,
		retry: rabbitmq.RetryPolicy{
			MaxAttempts: cfg.RabbitMQ.MaxAttempts,
			Delay:       cfg.RabbitMQ.RedeliveryDelay,
		},
		notifier: notifierservice.New(smtp.NewMailer(cfg.SMTP), cfg.SMTP.AdminEmails, logger),
		logger:   logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.notifier.HandleMessage, a.retry, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("notifier is consuming", slog.String("queue", a.queue))

	closed := a.conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		a.logger.Info("notifier shutting down gracefully")
	case amqpErr := <-closed:
		if amqpErr != nil {
			a.logger.Error("rabbitmq connection lost", slog.String("reason", amqpErr.Reason))
			return fmt.Errorf("app.notifier.Run: %s", amqpErr.Reason)
		}
	}

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
