package event

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueuePublisher hands events to the notification worker over RabbitMQ.
// The worker owns templating and delivery; the engine only states facts.
type QueuePublisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewQueuePublisher(conn *amqp.Connection, exchange string) (*QueuePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &QueuePublisher{ch: ch, exchange: exchange}, nil
}

// Publish routes by event type (e.g. "outbid", "auction_ended") so workers
// can bind only the kinds they care about. Best-effort, like the Redis sink.
func (p *QueuePublisher) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event: marshal %s: %v", ev.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		MessageId:   ev.ID,
		Body:        payload,
	})
	if err != nil {
		log.Printf("event: amqp publish %s: %v", ev.Type, err)
	}
}

func (p *QueuePublisher) Close() error {
	return p.ch.Close()
}
