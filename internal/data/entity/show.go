package entity

import (
	"time"

	"github.com/google/uuid"
)

// Show is one screening. BookedSeats belongs to the show alone and only grows
// through the atomic reservation statement.
type Show struct {
	BaseNoDelete
	MovieID      uuid.UUID `db:"movie_id"`
	TheatreID    uuid.UUID `db:"theatre_id"`
	ScreenNumber int       `db:"screen_number"`
	Showtime     time.Time `db:"showtime"`
	Price        float64   `db:"price"`
	Available    bool      `db:"available"`
	ShowDate     string    `db:"show_date"`
	BookedSeats  []string  `db:"booked_seats"`
}

// IsPast reports whether the show started strictly before now. A show
// starting at exactly now can still be booked.
func (s *Show) IsPast(now time.Time) bool {
	return s.Showtime.Before(now)
}

// ShowDateIn formats the local calendar date of a showtime.
func ShowDateIn(showtime time.Time, loc *time.Location) string {
	return showtime.In(loc).Format("2006-01-02")
}
