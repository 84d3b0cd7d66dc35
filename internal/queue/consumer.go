package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/mailer"
)

// ErrMalformed marks a message that can never be handled.  It is
// dead-lettered at once instead of being retried.
var ErrMalformed = errors.New("malformed message")

// Consumer drains the otp.requested and review.added queues.  OTP messages
// become verification emails; review messages are appended to
// <LogDir>/reviews.log, one line each.  A failed message is requeued once
// and dead-lettered when it fails again.
type Consumer struct {
	URL    string
	Mailer mailer.Mailer
	Log    *logger.Logger
	LogDir string
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, redialling
// with exponential back-off (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("queue-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.Log.Warn("queue-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("queue-consumer: set QoS failed", zap.Error(err))
	}

	otp, err := declareAndConsume(ch, OTPRequestedQueue)
	if err != nil {
		return err
	}
	reviews, err := declareAndConsume(ch, ReviewAddedQueue)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-otp:
			if !ok {
				return errors.New("otp deliveries channel closed")
			}
			c.settle(d, c.HandleOTP(ctx, d.Body))
		case d, ok := <-reviews:
			if !ok {
				return errors.New("review deliveries channel closed")
			}
			c.settle(d, c.HandleReview(d.Body))
		}
	}
}

func declareAndConsume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if err := Declare(ch, queue); err != nil {
		return nil, err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) settle(d amqp.Delivery, err error) {
	if err == nil {
		_ = d.Ack(false)
		return
	}
	fields := []zap.Field{zap.String("queue", d.RoutingKey), zap.String("message_id", d.MessageId), zap.Error(err)}
	// Redelivered is set once the broker has handed the message out before,
	// so each message gets exactly one retry.
	if !d.Redelivered && !errors.Is(err, ErrMalformed) {
		c.Log.Warn("queue-consumer: handle message failed; requeued", fields...)
		_ = d.Nack(false, true)
		return
	}
	c.Log.Error("queue-consumer: handle message failed; dead-lettered", fields...)
	_ = d.Nack(false, false)
}

// HandleOTP sends the verification email described by body.
func (c *Consumer) HandleOTP(ctx context.Context, body []byte) error {
	var ev OTPRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Email == "" || ev.Code == "" {
		return fmt.Errorf("%w: otp event missing email or code", ErrMalformed)
	}
	ttl := time.Duration(ev.ExpiresInMinutes) * time.Minute
	return c.Mailer.Send(ctx, mailer.OTPMessage(ev.Email, ev.Code, ttl))
}

// HandleReview appends the review described by body to reviews.log.
func (c *Consumer) HandleReview(body []byte) error {
	var ev ReviewAddedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "reviews.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Review added | review_id=%d | event_id=%d | user_id=%d | user=%q | rating=%d | reviews=%d | average=%.2f | comment=%q\n",
		ev.CreatedAt, ev.ReviewID, ev.EventID, ev.UserID, ev.UserName, ev.Rating, ev.ReviewCount, ev.AverageRating, ev.Comment)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
