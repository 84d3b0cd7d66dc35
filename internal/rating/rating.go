// Package rating holds per-event star reviews and their running summary.
//
// Two modes exist.  Durable reviews belong to events with a store-assigned
// id and are written by verified raters; a rater may review an event once.
// Local reviews belong to events that only have a title+date fingerprint;
// they carry no rater identity and are never checked for duplicates.
package rating

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	MinScore = 1
	MaxScore = 5
)

var (
	// ErrAuthRequired is returned before any mutation when a durable review is
	// submitted without a verified rater.
	ErrAuthRequired = errors.New("please log in to submit a review")
	// ErrAlreadyReviewed rejects a second review by the same rater.
	ErrAlreadyReviewed = errors.New("you have already reviewed this event")
	// ErrEventNotFound is returned when the target event does not exist.
	ErrEventNotFound = errors.New("event not found")
)

// Review is one rating left on an event.  RaterID is zero for local reviews.
type Review struct {
	ID        uint64    `json:"_id,omitempty"`
	EventID   uint64    `json:"eventId,omitempty"`
	RaterID   uint64    `json:"user,omitempty"`
	RaterName string    `json:"userName"`
	Score     int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is derived from the full review set; it is never edited directly.
type Summary struct {
	Count   int     `json:"reviewCount"`
	Average float64 `json:"averageRating"`
}

// Rater is a verified reviewer.
type Rater struct {
	ID   uint64
	Name string
}

// Clamp corrects an out-of-range score instead of rejecting it.
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Summarize computes count and arithmetic mean.  An empty set has mean 0.
func Summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Score
	}
	return Summary{Count: len(reviews), Average: float64(sum) / float64(len(reviews))}
}

// Store persists durable reviews.  Append must fail with ErrAlreadyReviewed
// when the rater already has a review on the event and ErrEventNotFound when
// the event is missing; on success it returns the stored review and the
// summary recomputed from every review of the event.
type Store interface {
	Append(ctx context.Context, r Review) (Review, Summary, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]Review, error)
}

// Notifier is told about every accepted review.  Failures are not fatal.
type Notifier interface {
	ReviewAdded(ctx context.Context, r Review, s Summary) error
}

// Service applies the review rules on top of a Store.
type Service struct {
	store  Store
	notify Notifier
	now    func() time.Time
}

// NewService builds a Service.  notify may be nil.
func NewService(store Store, notify Notifier) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// Add records a durable review.  The rater check happens before the store is
// touched; the score is clamped into [1,5].
func (s *Service) Add(ctx context.Context, eventID uint64, rater *Rater, score int, comment string) (Review, Summary, error) {
	if rater == nil || rater.ID == 0 {
		return Review{}, Summary{}, ErrAuthRequired
	}
	r := Review{
		EventID:   eventID,
		RaterID:   rater.ID,
		RaterName: rater.Name,
		Score:     Clamp(score),
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now().UTC(),
	}
	saved, sum, err := s.store.Append(ctx, r)
	if err != nil {
		return Review{}, Summary{}, err
	}
	if s.notify != nil {
		_ = s.notify.ReviewAdded(ctx, saved, sum)
	}
	return saved, sum, nil
}

// List returns all reviews of an event and their summary.  A missing event
// reads as an empty set.
func (s *Service) List(ctx context.Context, eventID uint64) ([]Review, Summary, error) {
	reviews, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return []Review{}, Summary{}, nil
		}
		return nil, Summary{}, err
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, Summarize(reviews), nil
}
