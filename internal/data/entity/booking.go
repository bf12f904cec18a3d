package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking snapshots the show it was made for. Seats is a copy of the
// identifiers reserved on the show, never a view into the show's set.
type Booking struct {
	BaseSimple
	BookingRef    string        `db:"booking_ref"`
	UserID        *uuid.UUID    `db:"user_id"`
	CustomerName  string        `db:"customer_name"`
	CustomerEmail string        `db:"customer_email"`
	MovieID       uuid.UUID     `db:"movie_id"`
	MovieTitle    string        `db:"movie_title"`
	ShowID        uuid.UUID     `db:"show_id"`
	TheatreID     uuid.UUID     `db:"theatre_id"`
	TheatreName   string        `db:"theatre_name"`
	Showtime      time.Time     `db:"showtime"`
	Seats         []string      `db:"seats"`
	TotalAmount   float64       `db:"total_amount"`
	Status        BookingStatus `db:"status"`
}

// MovieRevenue aggregates confirmed bookings of one movie title.
type MovieRevenue struct {
	MovieTitle string  `db:"movie_title"`
	Bookings   int64   `db:"bookings"`
	Tickets    int64   `db:"tickets"`
	Revenue    float64 `db:"revenue"`
}
