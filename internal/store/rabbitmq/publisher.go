package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/calmchat/internal/chat"
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
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeclareTopology declares the main queue and its retry and dead-letter
// companions. Publisher and worker both call it so either may start first.
func DeclareTopology(ch *amqp.Channel, queue string) error {
	mainQ := queue
	retryQ := RetryQueue(queue)
	dlqQ := DeadLetterQueue(queue)

	// DLQ
	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	// Retry queue: message TTL -> dead-letter back to main queue
	if _, err := ch.QueueDeclare(
		retryQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": mainQ,
		},
	); err != nil {
		return err
	}

	// Main queue: dead-letter to DLQ on reject/nack(requeue=false)
	_, err := ch.QueueDeclare(
		mainQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	)
	return err
}

func RetryQueue(queue string) string      { return queue + ".retry" }
func DeadLetterQueue(queue string) string { return queue + ".dlq" }

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishCrisis implements chat.Alerter.
func (p *Publisher) PublishCrisis(ctx context.Context, alert chat.CrisisAlert) error {
	msg, err := EncodeAlert(alert)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.queue, msg)
}

// PublishRetry re-queues a delivery body on the retry queue; it returns to
// the main queue once delay has passed.
func (p *Publisher) PublishRetry(ctx context.Context, body []byte, attempt int, delay time.Duration) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    time.Now(),
		Expiration:   strconvMillis(delay),
		Headers:      amqp.Table{HeaderAttempt: int32(attempt)},
	}
	return p.publish(ctx, RetryQueue(p.queue), msg)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",         // default exchange
		routingKey, // routing key = queue
		false,
		false,
		msg,
	)
}

const HeaderAttempt = "x-attempt"

func EncodeAlert(alert chat.CrisisAlert) (amqp.Publishing, error) {
	if alert.SessionTag == "" || alert.Phrase == "" {
		return amqp.Publishing{}, errors.New("crisis alert requires session tag and phrase")
	}
	if alert.At.IsZero() {
		alert.At = time.Now().UTC()
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    alert.At,
		Type:         "crisis_alert",
	}, nil
}

func DecodeAlert(body []byte) (chat.CrisisAlert, error) {
	var alert chat.CrisisAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		return alert, err
	}
	if alert.SessionTag == "" || alert.Phrase == "" {
		return alert, errors.New("crisis alert requires session tag and phrase")
	}
	return alert, nil
}

// AttemptOf reads the retry counter set by PublishRetry.
func AttemptOf(d amqp.Delivery) int {
	switch v := d.Headers[HeaderAttempt].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func strconvMillis(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
