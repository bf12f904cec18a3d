package request

import "time"

type CreateShowRequest struct {
	MovieID      string    `json:"movie_id" validate:"required"`
	TheatreID    string    `json:"theatre_id" validate:"required,uuid"`
	ScreenNumber int       `json:"screen_number" validate:"required,gte=1"`
	Showtime     time.Time `json:"showtime" validate:"required"`
	Price        float64   `json:"price" validate:"required,gt=0"`
	Available    *bool     `json:"available,omitempty"`
}

type UpdateShowRequest struct {
	ScreenNumber *int       `json:"screen_number,omitempty" validate:"omitempty,gte=1"`
	Showtime     *time.Time `json:"showtime,omitempty"`
	Price        *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	Available    *bool      `json:"available,omitempty"`
}

// ReserveSeatsRequest carries seat identifiers such as "A1"; the grammar is
// checked by the show service.
type ReserveSeatsRequest struct {
	Seats []string `json:"seats" validate:"required,min=1"`
}
