package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/mailer"
	q "github.com/iliyamo/eventica/internal/queue"
	"github.com/iliyamo/eventica/internal/rating"
)

type fakeQueue struct {
	err  error
	sent map[string][]any
}

func (f *fakeQueue) Publish(_ context.Context, queue string, v any) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[string][]any{}
	}
	f.sent[queue] = append(f.sent[queue], v)
	return nil
}

type outbox struct{ sent []mailer.Message }

func (o *outbox) Send(_ context.Context, m mailer.Message) error {
	o.sent = append(o.sent, m)
	return nil
}

func TestOTPDispatcherPublishes(t *testing.T) {
	fq := &fakeQueue{}
	box := &outbox{}
	d := &OTPDispatcher{Queue: fq, Mailer: box, Log: logger.Nop()}

	require.NoError(t, d.SendOTP(context.Background(), "a@x.com", "123456", 10*time.Minute))
	require.Len(t, fq.sent[q.OTPRequestedQueue], 1)
	ev := fq.sent[q.OTPRequestedQueue][0].(q.OTPRequestedEvent)
	assert.Equal(t, "123456", ev.Code)
	assert.Equal(t, 10, ev.ExpiresInMinutes)
	assert.Empty(t, box.sent)
}

func TestOTPDispatcherFallsBackToMail(t *testing.T) {
	box := &outbox{}
	d := &OTPDispatcher{Queue: &fakeQueue{err: errors.New("down")}, Mailer: box, Log: logger.Nop()}
	require.NoError(t, d.SendOTP(context.Background(), "a@x.com", "123456", 10*time.Minute))
	require.Len(t, box.sent, 1)

	inline := &OTPDispatcher{Mailer: box, Log: logger.Nop()}
	require.NoError(t, inline.SendOTP(context.Background(), "b@x.com", "654321", 5*time.Minute))
	assert.Len(t, box.sent, 2)
	assert.Equal(t, "b@x.com", box.sent[1].To)
}

func TestReviewNotifier(t *testing.T) {
	fq := &fakeQueue{}
	n := &ReviewNotifier{Queue: fq, Log: logger.Nop()}
	r := rating.Review{ID: 1, EventID: 2, RaterID: 3, RaterName: "alice", Score: 4, CreatedAt: time.Now()}
	require.NoError(t, n.ReviewAdded(context.Background(), r, rating.Summary{Count: 1, Average: 4}))
	ev := fq.sent[q.ReviewAddedQueue][0].(q.ReviewAddedEvent)
	assert.Equal(t, uint64(2), ev.EventID)
	assert.Equal(t, 4.0, ev.AverageRating)

	assert.NoError(t, (&ReviewNotifier{Log: logger.Nop()}).ReviewAdded(context.Background(), r, rating.Summary{}))
}
