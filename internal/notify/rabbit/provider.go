package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lomoval/murinahi/internal/notify"
	"github.com/streadway/amqp"
)

var ErrNotConnected = errors.New("provider is not connected")

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Queue    string
}

type Provider struct {
	conn       *amqp.Connection
	queue      amqp.Queue
	channel    *amqp.Channel
	connString string
	queueName  string
}

func New(config Config) *Provider {
	return &Provider{
		connString: fmt.Sprintf(
			"amqp://%s:%s@%s:%d/",
			config.User,
			config.Password,
			config.Host,
			config.Port,
		),
		queueName: config.Queue,
	}
}

func (r *Provider) Connect() error {
	var err error
	r.conn, err = amqp.Dial(r.connString)
	if err != nil {
		return err
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		return err
	}
	r.queue, err = r.channel.QueueDeclare(
		r.queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

func (r *Provider) Close() {
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *Provider) Publish(_ context.Context, msg notify.Message) error {
	if r.channel == nil {
		return ErrNotConnected
	}
	body, err := Encode(msg)
	if err != nil {
		return err
	}
	return r.channel.Publish(
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Type:        string(msg.Kind),
			Body:        body,
		})
}

type MessageProcess = func(msg notify.Message)

// Consume delivers decoded messages until ctx is done. Undecodable deliveries are skipped.
func (r *Provider) Consume(ctx context.Context, process MessageProcess, onError func(error)) error {
	if r.channel == nil {
		return ErrNotConnected
	}
	msgs, err := r.channel.Consume(
		r.queue.Name, // queue
		"",           // consumer
		true,         // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			msg, err := Decode(d.Body)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			process(msg)
		}
	}
}

func Encode(msg notify.Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return body, nil
}

func Decode(body []byte) (notify.Message, error) {
	var msg notify.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return notify.Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.EventID == "" {
		return notify.Message{}, fmt.Errorf("failed to decode message: empty event id")
	}
	return msg, nil
}
