package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/fairwaylab/swingcoach/internal/lib/sl"
)

const (
	maxInFlight = 10

	// retryHeader хранит число неудачных попыток обработки сообщения.
	retryHeader = "x-retry-count"
)

// RetryPolicy ограничивает повторную обработку сообщения.
// После MaxAttempts неудач сообщение уходит в очередь <queue>.dead.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// ConsumerMessage читает очередь и передаёт тела сообщений handler.
// При ошибке handler сообщение публикуется в ту же очередь повторно через
// policy.Delay, пока не исчерпаны попытки.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error, policy RetryPolicy, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed", slog.String("queue", queueName))
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(d.Body); err != nil {
						retry(ctx, ch, queueName, d, policy, err, log)
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func retry(ctx context.Context, ch *amqp.Channel, queueName string, d amqp.Delivery, policy RetryPolicy, cause error, log *slog.Logger) {
	attempts := retryCount(d.Headers) + 1
	log = log.With(slog.String("queue", queueName), slog.Int("attempt", attempts))

	if attempts >= policy.MaxAttempts {
		log.Error("giving up on message, moving to dead letter queue", sl.Err(cause))
		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}
	log.Warn("message handling failed, will retry", slog.Duration("delay", policy.Delay), sl.Err(cause))

	select {
	case <-time.After(policy.Delay):
	case <-ctx.Done():
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(attempts)

	err := ch.Publish("", queueName, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         d.Body,
	})
	if err != nil {
		log.Error("failed to republish message", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

// retryCount читает счётчик попыток из заголовков; отсутствующий или
// нечисловой заголовок считается нулём.
func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	}
	return 0
}
