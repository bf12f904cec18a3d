package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cinebook/internal/dto/request"
	"cinebook/internal/notification"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (f *fixture) bookingRequest(seats ...string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		MovieID:     f.movie.ExternalID,
		MovieTitle:  "Interstellar",
		ShowID:      f.show.ID.String(),
		Seats:       seats,
		TotalAmount: 250 * float64(len(seats)),
	}
}

func TestCreateBooking_ConfirmsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Booking.CreateBooking(ctx, f.customer.ID, f.bookingRequest("b4", "B5"))
	require.NoError(t, err)

	assert.Equal(t, []string{"B4", "B5"}, resp.Seats)
	assert.Equal(t, "Customer", resp.CustomerName)
	assert.Equal(t, f.customer.Email, resp.CustomerEmail)
	assert.Equal(t, "Orion", resp.TheatreName)
	assert.Equal(t, f.movie.ID.String(), resp.MovieID)
	assert.Equal(t, "confirmed", string(resp.Status))
	assert.Regexp(t, `^BOOK-20261016-120000-\d{4}$`, resp.BookingRef)
	assert.Equal(t, []string{"B4", "B5"}, f.bookedSeats(f.show.ID))

	f.notifier.AssertCalled(t, "BookingConfirmed", mock.Anything, mock.MatchedBy(func(ev notification.BookingConfirmedEvent) bool {
		return ev.BookingRef == resp.BookingRef && ev.CustomerEmail == f.customer.Email && len(ev.Seats) == 2
	}))

	// The stored booking owns its seat list.
	stored := f.store.bookings[0]
	stored.Seats[0] = "Z1"
	assert.Equal(t, []string{"B4", "B5"}, f.bookedSeats(f.show.ID))
}

func TestCreateBooking_ExplicitCustomer(t *testing.T) {
	f := newFixture(t)
	req := f.bookingRequest("C1")
	name, email := "  Ravi  ", "ravi@example.com"
	req.CustomerName = &name
	req.CustomerEmail = &email

	resp, err := f.svc.Booking.CreateBooking(context.Background(), uuid.Nil, req)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", resp.CustomerName)
	assert.Equal(t, email, resp.CustomerEmail)
	assert.Nil(t, resp.UserID)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Booking.CreateBooking(ctx, f.customer.ID, f.bookingRequest("A1"))
	require.NoError(t, err)

	otherMovie := *f.movie
	otherMovie.ID = uuid.New()
	otherMovie.ExternalID = "tt0113277"
	f.store.movies[otherMovie.ID] = &otherMovie

	past := f.addShow(f.theatre, 1, fixtureNow.Add(-time.Minute))

	tests := []struct {
		name    string
		userID  uuid.UUID
		mutate  func(*request.CreateBookingRequest)
		wantErr error
	}{
		{
			name:    "seat taken",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.Seats = []string{"A2", "A1"} },
			wantErr: utils.ErrSeatConflict,
		},
		{
			name:    "movie does not match show",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.MovieID = otherMovie.ExternalID },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "show started",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.ShowID = past.ID.String() },
			wantErr: utils.ErrShowExpired,
		},
		{
			name:    "unknown show",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.ShowID = uuid.NewString() },
			wantErr: utils.ErrNotFound,
		},
		{
			name:    "zero amount",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.TotalAmount = 0 },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "seat off the screen",
			userID:  f.customer.ID,
			mutate:  func(r *request.CreateBookingRequest) { r.Seats = []string{"K1"} },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "anonymous without email",
			userID:  uuid.Nil,
			mutate:  func(r *request.CreateBookingRequest) {},
			wantErr: utils.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.bookingRequest("A3")
			tt.mutate(req)
			_, err := f.svc.Booking.CreateBooking(ctx, tt.userID, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, []string{"A1"}, f.bookedSeats(f.show.ID))
	assert.Len(t, f.store.bookings, 1)
}

func TestCreateBooking_ShowtimeBoundary(t *testing.T) {
	tests := []struct {
		name    string
		offset  time.Duration
		wantErr bool
	}{
		{name: "one second ahead", offset: time.Second},
		{name: "starting now", offset: 0},
		{name: "one second ago", offset: -time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			show := f.addShow(f.theatre, 1, fixtureNow.Add(tt.offset))
			req := f.bookingRequest("A1")
			req.ShowID = show.ID.String()

			resp, err := f.svc.Booking.CreateBooking(context.Background(), f.customer.ID, req)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, []string{"A1"}, resp.Seats)
				assert.Equal(t, []string{"A1"}, f.bookedSeats(show.ID))
				return
			}
			assert.ErrorIs(t, err, utils.ErrShowExpired)
			assert.Empty(t, f.bookedSeats(show.ID))
			assert.Empty(t, f.store.bookings)
		})
	}
}

func TestCreateBooking_ConcurrentBuyersOfOneSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := f.svc.Booking.CreateBooking(ctx, f.customer.ID, f.bookingRequest("E6"))
			if err == nil {
				wins.Add(1)
				return nil
			}
			if errors.Is(err, utils.ErrSeatConflict) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, wins.Load())
	assert.Len(t, f.store.bookings, 1)
	assert.Equal(t, []string{"E6"}, f.bookedSeats(f.show.ID))
}

func TestCreateBooking_NotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	failing := &mockNotifier{}
	failing.On("BookingConfirmed", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	svc := NewBookingService(f.store.repository(), failing, f.clock.Now, zap.NewNop())

	_, err := svc.CreateBooking(context.Background(), f.customer.ID, f.bookingRequest("F1"))
	require.NoError(t, err)
	failing.AssertExpectations(t)
}

func TestGetBooking_OwnershipAndListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Booking.CreateBooking(ctx, f.customer.ID, f.bookingRequest("D1"))
	require.NoError(t, err)

	got, err := f.svc.Booking.GetBooking(ctx, f.customer.ID, false, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.BookingRef, got.BookingRef)

	_, err = f.svc.Booking.GetBooking(ctx, uuid.New(), false, created.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.svc.Booking.GetBooking(ctx, uuid.New(), true, created.ID)
	assert.NoError(t, err)

	_, err = f.svc.Booking.GetBooking(ctx, f.customer.ID, false, uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrNotFound)

	mine, err := f.svc.Booking.ListUserBookings(ctx, f.customer.ID, request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine.Pagination.Total)

	all, err := f.svc.Booking.ListAllBookings(ctx, request.PaginatedRequest{Page: 1, PerPage: 10}, "confirmed")
	require.NoError(t, err)
	assert.Len(t, all.Data, 1)

	_, err = f.svc.Booking.ListAllBookings(ctx, request.PaginatedRequest{Page: 1, PerPage: 10}, "refunded")
	assert.ErrorIs(t, err, utils.ErrValidation)
}
