// Package service connects domain services to the message broker and mail
// transport.  Publish errors are logged and returned so callers may fall
// back or ignore them without interrupting the request.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/mailer"
	q "github.com/iliyamo/eventica/internal/queue"
	"github.com/iliyamo/eventica/internal/rating"
)

// Publisher sends persistent JSON messages to durable queues on the default
// exchange.  It dials per message; traffic is a few messages per signup.
type Publisher struct {
	URL string
	Log *logger.Logger
}

// Publish marshals v and routes it to queue.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if err := q.Declare(ch, queue); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}

// MessagePublisher is satisfied by *Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// OTPDispatcher hands codes to the mail worker through the broker.  When no
// broker is configured, or publishing fails, the email is sent inline.
type OTPDispatcher struct {
	Queue  MessagePublisher // nil sends inline
	Mailer mailer.Mailer
	Log    *logger.Logger
}

var _ account.OTPSender = (*OTPDispatcher)(nil)

func (d *OTPDispatcher) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if d.Queue != nil {
		ev := q.OTPRequestedEvent{
			Email:            email,
			Code:             code,
			ExpiresInMinutes: int(ttl / time.Minute),
			RequestedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		err := d.Queue.Publish(ctx, q.OTPRequestedQueue, ev)
		if err == nil {
			return nil
		}
		d.Log.Warn("otp publish failed; sending inline", zap.Error(err))
	}
	return d.Mailer.Send(ctx, mailer.OTPMessage(email, code, ttl))
}

// ReviewNotifier publishes accepted reviews.  Failures are logged only.
type ReviewNotifier struct {
	Queue MessagePublisher
	Log   *logger.Logger
}

var _ rating.Notifier = (*ReviewNotifier)(nil)

func (n *ReviewNotifier) ReviewAdded(ctx context.Context, r rating.Review, s rating.Summary) error {
	if n.Queue == nil {
		return nil
	}
	err := n.Queue.Publish(ctx, q.ReviewAddedQueue, q.ReviewAddedEvent{
		ReviewID:      r.ID,
		EventID:       r.EventID,
		UserID:        r.RaterID,
		UserName:      r.RaterName,
		Rating:        r.Score,
		Comment:       r.Comment,
		ReviewCount:   s.Count,
		AverageRating: s.Average,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.Log.Warn("review publish failed", zap.Uint64("event_id", r.EventID), zap.Error(err))
	}
	return err
}
