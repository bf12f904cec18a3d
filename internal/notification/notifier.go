// Package notification delivers customer-facing messages. Services talk to the
// Notifier port; delivery is either direct mail or a RabbitMQ hop to a worker
// that mails.
package notification

import (
	"context"
	"time"
)

type BookingConfirmedEvent struct {
	BookingRef    string    `json:"booking_ref"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	MovieTitle    string    `json:"movie_title"`
	TheatreName   string    `json:"theatre_name"`
	Showtime      time.Time `json:"showtime"`
	Seats         []string  `json:"seats"`
	TotalAmount   float64   `json:"total_amount"`
}

type ReviewPostedEvent struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	MovieLabel string `json:"movie_label"`
	Rating     int    `json:"rating"`
}

type OTPIssuedEvent struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier is fire-and-forget from the caller's point of view: callers log a
// returned error and carry on.
type Notifier interface {
	BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error
	ReviewPosted(ctx context.Context, ev ReviewPostedEvent) error
	OTPIssued(ctx context.Context, ev OTPIssuedEvent) error
}
