package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// QueueName is the durable queue carrying notification envelopes.
const QueueName = "booking.notifications"

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeReviewPosted     = "review.posted"
	TypeOTPIssued        = "otp.issued"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}

// dialTimeout bounds the TCP connect and AMQP handshake to the broker.
const dialTimeout = 5 * time.Second

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	return err
}

// QueuePublisher implements Notifier by publishing envelopes. The connection
// is opened on first publish and reopened after it drops.
type QueuePublisher struct {
	url string
	log *zap.Logger

	// lock is a one-slot semaphore so waiters can give up when their
	// context ends.
	lock chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueuePublisher(url string, log *zap.Logger) *QueuePublisher {
	return &QueuePublisher{
		url:  url,
		log:  log.With(zap.String("notifier", "queue")),
		lock: make(chan struct{}, 1),
	}
}

// channel must be called with lock held.
func (p *QueuePublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := dialBroker(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", QueueName, err)
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *QueuePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *QueuePublisher) publish(ctx context.Context, kind string, payload any) error {
	body, err := encodeEnvelope(kind, payload)
	if err != nil {
		return err
	}

	select {
	case p.lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", kind, ctx.Err())
	}
	defer func() { <-p.lock }()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         kind,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", kind, err)
	}
	return nil
}

func (p *QueuePublisher) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return p.publish(ctx, TypeBookingConfirmed, ev)
}

func (p *QueuePublisher) ReviewPosted(ctx context.Context, ev ReviewPostedEvent) error {
	return p.publish(ctx, TypeReviewPosted, ev)
}

func (p *QueuePublisher) OTPIssued(ctx context.Context, ev OTPIssuedEvent) error {
	return p.publish(ctx, TypeOTPIssued, ev)
}

func (p *QueuePublisher) Close() {
	p.lock <- struct{}{}
	defer func() { <-p.lock }()
	p.reset()
}

// Dispatch decodes one envelope and hands it to next.
func Dispatch(ctx context.Context, body []byte, next Notifier) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeBookingConfirmed:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return next.BookingConfirmed(ctx, ev)
	case TypeReviewPosted:
		var ev ReviewPostedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return next.ReviewPosted(ctx, ev)
	case TypeOTPIssued:
		var ev OTPIssuedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return next.OTPIssued(ctx, ev)
	default:
		return fmt.Errorf("unknown notification type %q", env.Type)
	}
}

// Consumer drains QueueName into a Notifier, usually a MailNotifier.
type Consumer struct {
	url  string
	next Notifier
	log  *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(url string, next Notifier, log *zap.Logger) *Consumer {
	return &Consumer{
		url:        url,
		next:       next,
		log:        log.With(zap.String("worker", "notification")),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run reconnects until ctx is cancelled and then returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		conn, err := dialBroker(c.url)
		if err == nil {
			backoff = c.minBackoff
			c.log.Info("Notification consumer connected", zap.String("queue", QueueName))
			err = c.consume(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return nil
			}
		}
		c.log.Warn("Notification consumer disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("Failed to set QoS", zap.Error(err))
	}
	if err := declareQueue(ch); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueName, err)
	}

	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	c.settle(ctx, d.Body, &d)
}

// settle drops a failed message instead of requeueing it.
func (c *Consumer) settle(ctx context.Context, body []byte, ack acknowledger) {
	if err := Dispatch(ctx, body, c.next); err != nil {
		c.log.Warn("Dropping notification", zap.Error(err))
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}
