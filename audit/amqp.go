package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPRecorder publishes interactions to a topic exchange with routing key
// "tool.<name>.<status>".
type AMQPRecorder struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// DialAMQP connects to the broker and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPRecorder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}
	return &AMQPRecorder{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *AMQPRecorder) Record(ctx context.Context, in Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling interaction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.ch.Publish(
		r.exchange,
		RoutingKey(in),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    in.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing interaction: %w", err)
	}
	return nil
}

func (r *AMQPRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.ch.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func RoutingKey(in Interaction) string {
	status := in.Status
	if status == "" {
		status = "unknown"
	}
	return "tool." + in.Tool + "." + status
}
