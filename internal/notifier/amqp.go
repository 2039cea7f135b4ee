// Package notifier delivers user notifications over RabbitMQ.
//
// Delivery is best effort. Services call Notify only after the financial
// operation committed, and a failed publish never rolls anything back.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
)

// event is the wire payload published to the notification exchange.
type event struct {
	UserID       int64             `json:"user_id"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Kind         string            `json:"kind"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	DispatchedAt time.Time         `json:"dispatched_at"`
}

// AMQPSink publishes notifications to a durable topic exchange. Routing keys
// are "notify.<kind>" so consumers can bind per notification kind.
type AMQPSink struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPSink dials the broker and declares the exchange.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("notifier: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notifier: channel: %w", err)
	}

	if err := declareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("notifier: exchange declare: %w", err)
	}

	return &AMQPSink{conn: conn, channel: ch, exchange: exchange}, nil
}

// Notify publishes one notification event. A closed channel is reopened once.
func (s *AMQPSink) Notify(ctx context.Context, userID int64, n domain.Notification) error {
	body, err := json.Marshal(event{
		UserID:       userID,
		Title:        n.Title,
		Message:      n.Message,
		Kind:         n.Kind,
		Metadata:     n.Metadata,
		DispatchedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notifier: marshal: %w", err)
	}

	routingKey := "notify." + n.Kind

	if err := s.publish(ctx, routingKey, body); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("routing_key", routingKey).Msg("publish failed, reopening channel")

		ch, chErr := s.conn.Channel()
		if chErr != nil {
			return fmt.Errorf("notifier: reopen channel: %w", chErr)
		}

		s.channel = ch

		if err := declareExchange(s.channel, s.exchange); err != nil {
			return fmt.Errorf("notifier: exchange declare: %w", err)
		}

		return s.publish(ctx, routingKey, body)
	}

	return nil
}

// Close releases the channel and connection.
func (s *AMQPSink) Close() {
	if s.channel != nil {
		s.channel.Close()
	}

	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *AMQPSink) publish(ctx context.Context, routingKey string, body []byte) error {
	return s.channel.PublishWithContext(ctx,
		s.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

func declareExchange(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}
