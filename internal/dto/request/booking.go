package request

// CreateBookingRequest finalizes a purchase. MovieID may be the local UUID or
// the external id of the show's movie.
type CreateBookingRequest struct {
	CustomerName  *string  `json:"customer_name,omitempty" validate:"omitempty,max=100"`
	CustomerEmail *string  `json:"customer_email,omitempty" validate:"omitempty,email"`
	MovieID       string   `json:"movie_id" validate:"required"`
	MovieTitle    string   `json:"movie_title" validate:"required,max=255"`
	ShowID        string   `json:"show_id" validate:"required,uuid"`
	Seats         []string `json:"seats" validate:"required,min=1"`
	TotalAmount   float64  `json:"total_amount" validate:"required,gt=0"`
}
