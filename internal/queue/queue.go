package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type QueueName string

const (
	QueueAirdropStatus QueueName = "airdrop-status"
)

type Config struct {
	URL            string
	ConnectTimeout time.Duration
}

// Publisher publishes JSON messages to a durable queue through the default
// exchange.
type Publisher struct {
	queueName QueueName
	conn      *amqp.Connection
	log       *slog.Logger
}

func Dial(config *Config) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(config.URL, amqp.Config{
		Dial: amqp.DefaultDial(config.ConnectTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

func NewPublisher(conn *amqp.Connection, queueName QueueName) *Publisher {
	return &Publisher{
		queueName: queueName,
		conn:      conn,
		log:       slog.With("component", "queue", "queue", queueName),
	}
}

// EnsureQueueExists declares the durable queue on the given channel.
func EnsureQueueExists(ch *amqp.Channel, queueName QueueName) error {
	_, err := ch.QueueDeclare(
		string(queueName), // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, message []byte) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("connection is not open")
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("couldn't open channel: %w", err)
	}
	defer ch.Close()

	if err := EnsureQueueExists(ch, p.queueName); err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",                  // exchange, empty means default (direct to queue)
		string(p.queueName), // routing key = queue name
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         message,
		},
	)
	if err != nil {
		p.log.Error("Failed to publish", "message", string(message), "error", err)
		return err
	}

	p.log.Debug("Published message", "size", len(message))

	return nil
}
