package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/models"
)

type fakeChannel struct {
	closed    bool
	exchanges []string
	published []amqp.Publishing
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.closed {
		return amqp.ErrClosed
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true
	return nil
}

type fakeConnection struct {
	closed     bool
	closeCalls int
	channels   []*fakeChannel
}

func (c *fakeConnection) openChannel() (amqpChannel, error) {
	if c.closed {
		return nil, amqp.ErrClosed
	}
	ch := &fakeChannel{}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closeCalls++
	c.closed = true
	return nil
}

type fakeBroker struct {
	conns   []*fakeConnection
	failing bool
}

func (b *fakeBroker) dial(string) (amqpConnection, error) {
	if b.failing {
		return nil, errors.New("connection refused")
	}
	conn := &fakeConnection{}
	b.conns = append(b.conns, conn)
	return conn, nil
}

func event(id int) *models.ResponseEvent {
	return &models.ResponseEvent{Type: ResponseCreated, ResponseID: id, PostID: 1, Author: "Bob", Body: "Hi"}
}

func TestRabbitMQPublishes(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newRabbitMQ("amqp://test", broker.dial)
	require.NoError(t, err)

	require.NoError(t, p.PublishResponse(context.Background(), event(7)))

	require.Len(t, broker.conns, 1)
	ch := broker.conns[0].channels[0]
	assert.Equal(t, []string{"postboard_events:fanout"}, ch.exchanges)
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, ResponseCreated, msg.Type)

	var got models.ResponseEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, 7, got.ResponseID)
}

func TestRabbitMQReopensClosedChannel(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newRabbitMQ("amqp://test", broker.dial)
	require.NoError(t, err)

	conn := broker.conns[0]
	conn.channels[0].closed = true // channel exception, connection still up

	require.NoError(t, p.PublishResponse(context.Background(), event(1)))
	assert.Len(t, broker.conns, 1, "connection is reused")
	require.Len(t, conn.channels, 2)
	assert.Len(t, conn.channels[1].published, 1)
	assert.Len(t, conn.channels[1].exchanges, 1)
}

func TestRabbitMQRedialsClosedConnection(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newRabbitMQ("amqp://test", broker.dial)
	require.NoError(t, err)

	old := broker.conns[0]
	old.closed = true
	old.channels[0].closed = true

	require.NoError(t, p.PublishResponse(context.Background(), event(1)))
	require.Len(t, broker.conns, 2)
	assert.Equal(t, 1, old.closeCalls, "dead connection is closed before redialing")
	assert.Len(t, broker.conns[1].channels[0].published, 1)
}

func TestRabbitMQRecoversAfterFailedDial(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newRabbitMQ("amqp://test", broker.dial)
	require.NoError(t, err)

	broker.conns[0].closed = true
	broker.failing = true
	assert.ErrorContains(t, p.PublishResponse(context.Background(), event(1)), "failed to connect to RabbitMQ")

	broker.failing = false
	require.NoError(t, p.PublishResponse(context.Background(), event(2)))
	assert.Len(t, broker.conns, 2)
}

func TestNewRabbitMQDialError(t *testing.T) {
	broker := &fakeBroker{failing: true}
	_, err := newRabbitMQ("amqp://test", broker.dial)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRabbitMQClose(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newRabbitMQ("amqp://test", broker.dial)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, broker.conns[0].channels[0].closed)
	assert.Equal(t, 1, broker.conns[0].closeCalls)
	require.NoError(t, p.Close())
}

func TestRecorderConcurrentPublish(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, r.PublishResponse(context.Background(), event(id)))
		}(i)
	}
	wg.Wait()

	published := r.Published()
	assert.Len(t, published, 50)
	published[0].Body = "changed"
	assert.NotEqual(t, "changed", r.Published()[0].Body, "Published returns a copy")
}
