package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Tomcli/refarch-reefer-ml/internal/queue"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

const confirmTimeout = 5 * time.Second

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type amqpChannel interface {
	publish(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// confirmChannel publishes to the default exchange on a channel in confirm
// mode. A nil confirmation means the channel is not in confirm mode.
type confirmChannel struct {
	*amqp.Channel
}

func (c confirmChannel) publish(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, "", key, false, false, msg)
	if dc == nil {
		return nil, err
	}
	return dc, err
}

// RabbitPublisher publishes to the default exchange, so the topic is the
// name of the destination queue.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	callback DeliveryCallback
	pending  sync.WaitGroup
}

// DialRabbitPublisher connects, declares queueName and puts the channel in
// confirm mode.
func DialRabbitPublisher(uri, queueName string, cb DeliveryCallback) (*RabbitPublisher, error) {
	conn, err := queue.NewRabbitConnection(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	ch, err := queue.NewConfirmChannel(conn, queueName)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: confirmChannel{ch}, callback: cb}, nil
}

func (p *RabbitPublisher) PublishEvent(ctx context.Context, topic string, rec reefer.Record, keyName string) error {
	key, value, err := encode(rec, keyName)
	if err != nil {
		return err
	}

	dc, err := p.ch.publish(ctx, topic, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    rec.Timestamp,
		Body:         value,
	})
	report := DeliveryReport{Sink: KindRabbit, Topic: topic, Key: key, Err: err}
	if err != nil || dc == nil {
		p.callback(report)
		return nil
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
		defer cancel()
		acked, err := dc.WaitContext(waitCtx)
		switch {
		case err != nil:
			report.Err = err
		case !acked:
			report.Err = fmt.Errorf("message nacked by broker")
		}
		p.callback(report)
	}()
	return nil
}

// Close waits for outstanding confirms to be reported, then closes the
// channel and connection.
func (p *RabbitPublisher) Close() error {
	p.pending.Wait()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
