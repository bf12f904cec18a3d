package response

import (
	"time"

	"cinebook/internal/data/entity"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	BookingRef    string               `json:"booking_ref"`
	UserID        *string              `json:"user_id,omitempty"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	MovieID       string               `json:"movie_id"`
	MovieTitle    string               `json:"movie_title"`
	ShowID        string               `json:"show_id"`
	TheatreID     string               `json:"theatre_id"`
	TheatreName   string               `json:"theatre_name"`
	Showtime      time.Time            `json:"showtime"`
	Seats         []string             `json:"seats"`
	TotalAmount   float64              `json:"total_amount"`
	Status        entity.BookingStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	var userID *string
	if b.UserID != nil {
		s := b.UserID.String()
		userID = &s
	}

	return BookingResponse{
		ID:            b.ID.String(),
		BookingRef:    b.BookingRef,
		UserID:        userID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		MovieID:       b.MovieID.String(),
		MovieTitle:    b.MovieTitle,
		ShowID:        b.ShowID.String(),
		TheatreID:     b.TheatreID.String(),
		TheatreName:   b.TheatreName,
		Showtime:      b.Showtime,
		Seats:         append([]string(nil), b.Seats...),
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
}

type MovieRevenueResponse struct {
	MovieTitle string  `json:"movie_title"`
	Bookings   int64   `json:"bookings"`
	Tickets    int64   `json:"tickets"`
	Revenue    float64 `json:"revenue"`
}

type AnalyticsResponse struct {
	TotalBookings int64                  `json:"total_bookings"`
	TotalTickets  int64                  `json:"total_tickets"`
	TotalRevenue  float64                `json:"total_revenue"`
	PerMovie      []MovieRevenueResponse `json:"per_movie"`
}

// AnalyticsFromRevenue totals per-movie rows.
func AnalyticsFromRevenue(rows []entity.MovieRevenue) AnalyticsResponse {
	out := AnalyticsResponse{PerMovie: make([]MovieRevenueResponse, 0, len(rows))}
	for _, m := range rows {
		out.TotalBookings += m.Bookings
		out.TotalTickets += m.Tickets
		out.TotalRevenue += m.Revenue
		out.PerMovie = append(out.PerMovie, MovieRevenueResponse(m))
	}
	return out
}
