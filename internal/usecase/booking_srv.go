package usecase

import (
	"context"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/internal/notification"
	"cinebook/pkg/seatmap"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, page request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, requester uuid.UUID, isAdmin bool, id string) (*response.BookingResponse, error)

	// Admin
	ListAllBookings(ctx context.Context, page request.PaginatedRequest, status string) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo     *repository.Repository
	notifier notification.Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewBookingService(repo *repository.Repository, notifier notification.Notifier, now func() time.Time, log *zap.Logger) BookingService {
	return &bookingService{
		repo:     repo,
		notifier: notifier,
		now:      now,
		log:      log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	// 1. Required fields
	if err := validate(req); err != nil {
		return nil, err
	}
	seats, err := seatmap.Normalize(req.Seats)
	if err != nil {
		return nil, err
	}

	// 2. Show must exist and still be in the future
	showID, err := parseID("show", req.ShowID)
	if err != nil {
		return nil, err
	}
	show, err := s.repo.Show.FindByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Show not found")
	}
	now := s.now()
	if show.IsPast(now) {
		return nil, utils.NewError(utils.ErrShowExpired, "Cannot book tickets for past shows")
	}

	// 3. The movie named by the client must be the show's movie
	movie, err := resolveMovie(ctx, s.repo.Movie, req.MovieID)
	if err != nil {
		return nil, err
	}
	if movie.ID != show.MovieID {
		return nil, utils.Invalid("movie_id", "Movie does not match the show")
	}

	// 4. Seats must exist on the screen
	theatre, err := s.repo.Theatre.FindByID(ctx, show.TheatreID)
	if err != nil {
		return nil, err
	}
	var (
		capacity    *int
		theatreName string
	)
	if theatre != nil {
		capacity = theatre.CapacityOf(show.ScreenNumber)
		theatreName = theatre.Name
	}
	if err := seatmap.Validate(seats, seatmap.EffectiveCapacity(capacity)); err != nil {
		return nil, err
	}

	// 5. Customer identity
	name := "Customer"
	if req.CustomerName != nil && strings.TrimSpace(*req.CustomerName) != "" {
		name = strings.TrimSpace(*req.CustomerName)
	}
	email := ""
	if req.CustomerEmail != nil {
		email = *req.CustomerEmail
	}
	var owner *uuid.UUID
	if userID != uuid.Nil {
		id := userID
		owner = &id
		if email == "" {
			user, err := s.repo.User.FindByID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				email = user.Email
			}
		}
	}
	if email == "" {
		return nil, utils.Invalid("customer_email", "This field is required")
	}

	booking := &entity.Booking{
		BaseSimple:    entity.NewBaseSimple(now),
		BookingRef:    utils.GenerateBookingRef(now),
		UserID:        owner,
		CustomerName:  name,
		CustomerEmail: email,
		MovieID:       show.MovieID,
		MovieTitle:    req.MovieTitle,
		ShowID:        show.ID,
		TheatreID:     show.TheatreID,
		TheatreName:   theatreName,
		Showtime:      show.Showtime,
		Seats:         append([]string(nil), seats...),
		TotalAmount:   req.TotalAmount,
		Status:        entity.BookingStatusConfirmed,
	}

	// 6. Reserve and record in one transaction
	if _, err := s.repo.Booking.CreateConfirmed(ctx, booking); err != nil {
		return nil, err
	}

	s.log.Info("Booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_ref", booking.BookingRef),
		zap.String("show_id", show.ID.String()),
		zap.Strings("seats", booking.Seats),
	)

	notify(ctx, s.log, notification.TypeBookingConfirmed, func(ctx context.Context) error {
		return s.notifier.BookingConfirmed(ctx, notification.BookingConfirmedEvent{
			BookingRef:    booking.BookingRef,
			CustomerName:  booking.CustomerName,
			CustomerEmail: booking.CustomerEmail,
			MovieTitle:    booking.MovieTitle,
			TheatreName:   booking.TheatreName,
			Showtime:      booking.Showtime,
			Seats:         append([]string(nil), booking.Seats...),
			TotalAmount:   booking.TotalAmount,
		})
	})

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func toBookingResponses(bookings []*entity.Booking) []response.BookingResponse {
	out := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, response.BookingToResponse(b))
	}
	return out
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, page request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return response.NewPaginatedResponse(toBookingResponses(bookings), page.Page, page.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, requester uuid.UUID, isAdmin bool, id string) (*response.BookingResponse, error) {
	bookingID, err := parseID("booking", id)
	if err != nil {
		return nil, err
	}
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Booking not found")
	}
	if !isAdmin && (booking.UserID == nil || *booking.UserID != requester) {
		return nil, utils.NewError(utils.ErrForbidden, "You can only view your own bookings")
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListAllBookings(ctx context.Context, page request.PaginatedRequest, status string) (*response.PaginatedResponse[response.BookingResponse], error) {
	switch entity.BookingStatus(status) {
	case "", entity.BookingStatusConfirmed, entity.BookingStatusPending, entity.BookingStatusCancelled:
	default:
		return nil, utils.Invalid("status", "Must be one of: pending, confirmed, cancelled")
	}

	bookings, err := s.repo.Booking.FindAll(ctx, status, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Booking.CountAll(ctx, status)
	if err != nil {
		return nil, err
	}
	return response.NewPaginatedResponse(toBookingResponses(bookings), page.Page, page.Limit(), total), nil
}
