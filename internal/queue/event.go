// Package queue defines message payloads exchanged over the message broker.
package queue

const (
	// OTPRequestedQueue carries verification codes to the mail worker.
	OTPRequestedQueue = "otp.requested"
	// ReviewAddedQueue carries accepted reviews to the audit log.
	ReviewAddedQueue = "review.added"
)

// OTPRequestedEvent is published when a signup code is issued.  The
// consumer renders and sends the verification email.
type OTPRequestedEvent struct {
	Email            string `json:"email"`
	Code             string `json:"code"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
	RequestedAt      string `json:"requested_at"`
}

// ReviewAddedEvent is published when a durable review is accepted.  It
// carries the recomputed summary so consumers need not query the database.
type ReviewAddedEvent struct {
	ReviewID      uint64  `json:"review_id"`
	EventID       uint64  `json:"event_id"`
	UserID        uint64  `json:"user_id"`
	UserName      string  `json:"user_name"`
	Rating        int     `json:"rating"`
	Comment       string  `json:"comment"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
	CreatedAt     string  `json:"created_at"`
}
