package response

import (
	"time"

	"cinebook/internal/data/entity"
)

type ShowResponse struct {
	ID           string    `json:"id"`
	MovieID      string    `json:"movie_id"`
	TheatreID    string    `json:"theatre_id"`
	TheatreName  string    `json:"theatre_name,omitempty"`
	ScreenNumber int       `json:"screen_number"`
	Showtime     time.Time `json:"showtime"`
	ShowDate     string    `json:"show_date"`
	Price        float64   `json:"price"`
	Available    bool      `json:"available"`
	SeatCapacity *int      `json:"seat_capacity"`
	BookedCount  int       `json:"booked_count"`
}

func ShowToResponse(show *entity.Show, capacity *int) ShowResponse {
	return ShowResponse{
		ID:           show.ID.String(),
		MovieID:      show.MovieID.String(),
		TheatreID:    show.TheatreID.String(),
		ScreenNumber: show.ScreenNumber,
		Showtime:     show.Showtime,
		ShowDate:     show.ShowDate,
		Price:        show.Price,
		Available:    show.Available,
		SeatCapacity: capacity,
		BookedCount:  len(show.BookedSeats),
	}
}

// SeatMapResponse is what a client needs to render a seat picker.
type SeatMapResponse struct {
	ShowID       string     `json:"show_id"`
	BookedSeats  []string   `json:"booked_seats"`
	SeatCapacity *int       `json:"seat_capacity"`
	Layout       [][]string `json:"layout"`
}

type ReserveSeatsResponse struct {
	ShowID      string   `json:"show_id"`
	BookedSeats []string `json:"booked_seats"`
}

type TheatreShowtimes struct {
	TheatreID   string         `json:"theatre_id"`
	TheatreName string         `json:"theatre_name"`
	Location    string         `json:"location"`
	Showtimes   []ShowResponse `json:"showtimes"`
}

type BackfillResponse struct {
	Updated int64 `json:"updated"`
}
