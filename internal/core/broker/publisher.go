package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"wallet-service/internal/core/domain/entity"
)

const (
	RoutingKeyPrefix = "wallet"

	notifyBuffer = 16
)

var (
	ErrUnroutable    = errors.New("event returned as unroutable")
	ErrNacked        = errors.New("event not acknowledged by broker")
	ErrConfirmClosed = errors.New("confirm channel closed")
)

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	NotifyReturn(c chan amqp.Return) chan amqp.Return
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// RabbitMQPublisher routes each outbox event to "wallet.<EventType>" on a
// topic exchange. The channel runs in confirm mode: Publish returns only once
// the broker acked the message, and a mandatory message the exchange could not
// route is reported as ErrUnroutable. Publishing goes through a circuit breaker
// so a dead broker fails fast instead of stalling every batch.
type RabbitMQPublisher struct {
	channel  AMQPChannel
	exchange string
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger

	mu       sync.Mutex
	confirms chan amqp.Confirmation
	returns  chan amqp.Return
	nextTag  uint64
}

func NewRabbitMQPublisher(ch AMQPChannel, exchange string, settings BreakerSettings, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rabbitmq-publisher",
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
		breaker:  breaker,
		logger:   logger,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, notifyBuffer)),
		returns:  ch.NotifyReturn(make(chan amqp.Return, notifyBuffer)),
		nextTag:  1,
	}, nil
}

func RoutingKey(eventType string) string {
	return RoutingKeyPrefix + "." + eventType
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event *entity.Outbox) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.publish(ctx, event)
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	return nil
}

// publish sends one message and waits for its confirm. Publishes are
// serialized so delivery tags map one to one onto events.
func (p *RabbitMQPublisher) publish(ctx context.Context, event *entity.Outbox) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKey(event.Type),
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         []byte(event.Payload),
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    time.Now().UTC(),
			Type:         event.Type,
			Headers: amqp.Table{
				"event_id":     event.ID,
				"event_type":   event.Type,
				"aggregate_id": event.AggregateID,
			},
		},
	)
	if err != nil {
		return err
	}

	tag := p.nextTag
	p.nextTag++

	if err := p.awaitConfirm(ctx, tag); err != nil {
		return err
	}

	// The broker sends basic.return before the ack of the same message.
	return p.checkReturned(event.ID)
}

func (p *RabbitMQPublisher) awaitConfirm(ctx context.Context, tag uint64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case confirm, ok := <-p.confirms:
			if !ok {
				return ErrConfirmClosed
			}
			if confirm.DeliveryTag < tag {
				// left over from a publish that timed out
				continue
			}
			if !confirm.Ack {
				return ErrNacked
			}
			return nil
		}
	}
}

func (p *RabbitMQPublisher) checkReturned(messageID string) error {
	for {
		select {
		case ret, ok := <-p.returns:
			if !ok {
				return nil
			}
			if ret.MessageId == messageID {
				return fmt.Errorf("%w: %s %s", ErrUnroutable, ret.RoutingKey, ret.ReplyText)
			}
			p.logger.Warn("dropping stale broker return",
				slog.String("message_id", ret.MessageId),
				slog.String("routing_key", ret.RoutingKey),
			)
		default:
			return nil
		}
	}
}
