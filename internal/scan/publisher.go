package scan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher hands scan events to the recording pipeline. The redirect
// handler calls it from a detached goroutine and never blocks on it.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type AMQPPublisher struct {
	ch    *amqp091.Channel
	queue string
}

func NewAMQPPublisher(ch *amqp091.Channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}
	err = p.ch.PublishWithContext(
		ctx,
		"", p.queue, false, false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish scan event: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable scan queue. Both the API service and
// the worker call it so either side can come up first.
func DeclareQueue(ch *amqp091.Channel, name string) (amqp091.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
