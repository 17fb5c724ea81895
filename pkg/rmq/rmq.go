package rmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

func (p *Publisher) PublishJSON(ctx context.Context, body []byte) error {
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, publishing(body, time.Now()))
}

func publishing(body []byte, ts time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         "submission.captured",
		AppId:        "intake-api",
		Timestamp:    ts,
		Body:         body,
	}
}
