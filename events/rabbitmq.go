package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"postboard/models"
)

const exchangeName = "postboard_events"

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpConnection interface {
	openChannel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type dialedConnection struct {
	*amqp.Connection
}

func (c dialedConnection) openChannel() (amqpChannel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return dialedConnection{conn}, nil
}

// RabbitMQ publishes events to a fanout exchange. A channel closed by a
// broker exception is reopened on the same connection; a dead connection is
// closed and dialed again.
type RabbitMQ struct {
	mu      sync.Mutex
	url     string
	dial    func(url string) (amqpConnection, error)
	conn    amqpConnection
	channel amqpChannel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	return newRabbitMQ(url, dialAMQP)
}

func newRabbitMQ(url string, dial func(string) (amqpConnection, error)) (*RabbitMQ, error) {
	p := &RabbitMQ{url: url, dial: dial}
	if err := p.ensureChannel(); err != nil {
		p.closeAll()
		return nil, err
	}
	return p, nil
}

// ensureChannel must be called with mu held.
func (p *RabbitMQ) ensureChannel() error {
	if p.conn == nil || p.conn.IsClosed() {
		p.closeAll()
		conn, err := p.dial(p.url)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		p.conn = conn
	}

	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.closeChannel()

	ch, err := p.conn.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.channel = ch
	return nil
}

func (p *RabbitMQ) closeChannel() error {
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func (p *RabbitMQ) closeAll() error {
	chErr := p.closeChannel()
	if p.conn == nil {
		return chErr
	}
	err := p.conn.Close()
	p.conn = nil
	if errors.Is(err, amqp.ErrClosed) {
		err = nil
	}
	return errors.Join(chErr, err)
}

func (p *RabbitMQ) PublishResponse(ctx context.Context, event *models.ResponseEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		exchangeName,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Type:        event.Type,
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

func (p *RabbitMQ) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeAll()
}
