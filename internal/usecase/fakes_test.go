package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/notification"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// store is an in-memory stand-in for Postgres. One mutex guards every table,
// which gives the seat reservation the same all-or-nothing behaviour as the
// single UPDATE statement.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.Session
	otps     []*entity.OTP
	movies   map[uuid.UUID]*entity.Movie
	theatres map[uuid.UUID]*entity.Theatre
	shows    map[uuid.UUID]*entity.Show
	bookings []*entity.Booking
	reviews  map[uuid.UUID]*entity.Review

	revenueCalls int
}

func newStore() *store {
	return &store{
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[uuid.UUID]*entity.Session),
		movies:   make(map[uuid.UUID]*entity.Movie),
		theatres: make(map[uuid.UUID]*entity.Theatre),
		shows:    make(map[uuid.UUID]*entity.Show),
		reviews:  make(map[uuid.UUID]*entity.Review),
	}
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		User:    fakeUsers{s},
		Session: fakeSessions{s},
		OTP:     fakeOTPs{s},
		Movie:   fakeMovies{s},
		Theatre: fakeTheatres{s},
		Show:    fakeShows{s},
		Booking: fakeBookings{s},
		Review:  fakeReviews{s},
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// users

type fakeUsers struct{ s *store }

func (r fakeUsers) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email || other.Username == u.Username {
			return fmt.Errorf("create user: %w", utils.ErrDuplicate)
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r fakeUsers) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if !u.IsDeleted() && match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r fakeUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r fakeUsers) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if !u.IsDeleted() {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, limit, offset), nil
}

func (r fakeUsers) CountAll(ctx context.Context) (int64, error) {
	all, _ := r.FindAll(ctx, 1<<30, 0)
	return int64(len(all)), nil
}

func (r fakeUsers) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsDeleted() {
		return utils.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

// sessions

type fakeSessions struct{ s *store }

func (r fakeSessions) Create(_ context.Context, sess *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sess
	r.s.sessions[sess.Token] = &cp
	return nil
}

func (r fakeSessions) FindActive(_ context.Context, token uuid.UUID, now time.Time) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[token]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(now) {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (r fakeSessions) Revoke(_ context.Context, token uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[token]; ok && sess.RevokedAt == nil {
		now := time.Now()
		sess.RevokedAt = &now
	}
	return nil
}

func (r fakeSessions) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &now
		}
	}
	return nil
}

func (r fakeSessions) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for token, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(r.s.sessions, token)
			n++
		}
	}
	return n, nil
}

// otps

type fakeOTPs struct{ s *store }

func (r fakeOTPs) Create(_ context.Context, otp *entity.OTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *otp
	r.s.otps = append(r.s.otps, &cp)
	return nil
}

func (r fakeOTPs) Consume(_ context.Context, email, code string, otpType entity.OTPType, now time.Time) (*entity.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.otps) - 1; i >= 0; i-- {
		otp := r.s.otps[i]
		if otp.Email == email && otp.OTPCode == code && otp.OTPType == otpType && otp.Usable(now) {
			otp.IsUsed = true
			cp := *otp
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *store) lastOTP(email string) *entity.OTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.otps) - 1; i >= 0; i-- {
		if s.otps[i].Email == email {
			return s.otps[i]
		}
	}
	return nil
}

// movies

type fakeMovies struct{ s *store }

func (r fakeMovies) Create(_ context.Context, m *entity.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.movies {
		if other.ExternalID == m.ExternalID {
			return fmt.Errorf("create movie: %w", utils.ErrDuplicate)
		}
	}
	cp := *m
	r.s.movies[m.ID] = &cp
	return nil
}

func (r fakeMovies) FindByID(_ context.Context, id uuid.UUID) (*entity.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.movies[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r fakeMovies) FindByExternalID(_ context.Context, externalID string) (*entity.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movies {
		if m.ExternalID == externalID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeMovies) matching(language string) []*entity.Movie {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movie
	for _, m := range r.s.movies {
		ok := language == ""
		for _, l := range m.Languages {
			ok = ok || l == language
		}
		if ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}

func (r fakeMovies) FindAll(_ context.Context, language string, limit, offset int) ([]*entity.Movie, error) {
	return paginate(r.matching(language), limit, offset), nil
}

func (r fakeMovies) CountAll(_ context.Context, language string) (int64, error) {
	return int64(len(r.matching(language))), nil
}

func (r fakeMovies) Update(_ context.Context, m *entity.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movies[m.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *m
	r.s.movies[m.ID] = &cp
	return nil
}

func (r fakeMovies) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movies[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.movies, id)
	return nil
}

// theatres

type fakeTheatres struct{ s *store }

func (r fakeTheatres) Create(_ context.Context, t *entity.Theatre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.theatres[t.ID] = &cp
	return nil
}

func (r fakeTheatres) FindByID(_ context.Context, id uuid.UUID) (*entity.Theatre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.theatres[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r fakeTheatres) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Theatre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]*entity.Theatre, len(ids))
	for _, id := range ids {
		if t, ok := r.s.theatres[id]; ok {
			cp := *t
			out[id] = &cp
		}
	}
	return out, nil
}

func (r fakeTheatres) FindAll(_ context.Context, limit, offset int) ([]*entity.Theatre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Theatre
	for _, t := range r.s.theatres {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (r fakeTheatres) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.theatres)), nil
}

func (r fakeTheatres) Update(_ context.Context, t *entity.Theatre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.theatres[t.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *t
	r.s.theatres[t.ID] = &cp
	return nil
}

func (r fakeTheatres) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.theatres[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.theatres, id)
	return nil
}

// shows

type fakeShows struct{ s *store }

func (r fakeShows) Create(_ context.Context, show *entity.Show) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	show.BookedSeats = []string{}
	cp := *show
	cp.BookedSeats = []string{}
	r.s.shows[show.ID] = &cp
	return nil
}

func (r fakeShows) FindByID(_ context.Context, id uuid.UUID) (*entity.Show, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if show, ok := r.s.shows[id]; ok {
		cp := *show
		cp.BookedSeats = append([]string{}, show.BookedSeats...)
		return &cp, nil
	}
	return nil, nil
}

func (r fakeShows) FindUpcomingByMovie(_ context.Context, movieID uuid.UUID, showDate string, after time.Time) ([]*entity.Show, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Show
	for _, show := range r.s.shows {
		if show.MovieID == movieID && show.Available && show.Showtime.After(after) &&
			(showDate == "" || show.ShowDate == showDate) {
			cp := *show
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Showtime.Before(out[j].Showtime) })
	return out, nil
}

func (r fakeShows) FindAll(_ context.Context, limit, offset int) ([]*entity.Show, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Show
	for _, show := range r.s.shows {
		cp := *show
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Showtime.After(out[j].Showtime) })
	return paginate(out, limit, offset), nil
}

func (r fakeShows) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.shows)), nil
}

func (r fakeShows) FindBookedByTheatre(_ context.Context, theatreID uuid.UUID, after time.Time) ([]*entity.Show, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Show
	for _, show := range r.s.shows {
		if show.TheatreID == theatreID && show.Showtime.After(after) && len(show.BookedSeats) > 0 {
			cp := *show
			cp.BookedSeats = append([]string{}, show.BookedSeats...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Showtime.Before(out[j].Showtime) })
	return out, nil
}

func (r fakeShows) Update(_ context.Context, show *entity.Show, allowedSeats []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.shows[show.ID]
	if !ok {
		return utils.ErrNotFound
	}
	allowed := make(map[string]bool, len(allowedSeats))
	for _, seat := range allowedSeats {
		allowed[seat] = true
	}
	for _, seat := range stored.BookedSeats {
		if !allowed[seat] {
			return utils.Invalid("screen_number", "Booked seats do not fit the new screen")
		}
	}
	booked := stored.BookedSeats
	cp := *show
	cp.BookedSeats = booked
	r.s.shows[show.ID] = &cp
	return nil
}

func (r fakeShows) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.shows, id)
	return nil
}

func (r fakeShows) BackfillShowDates(_ context.Context, timezone string) (int64, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, show := range r.s.shows {
		if show.ShowDate == "" {
			show.ShowDate = entity.ShowDateIn(show.Showtime, loc)
			n++
		}
	}
	return n, nil
}

// reserveLocked must be called with the store mutex held.
func (s *store) reserveLocked(showID uuid.UUID, seats []string) ([]string, error) {
	show, ok := s.shows[showID]
	if !ok {
		return nil, fmt.Errorf("show %s: %w", showID, utils.ErrNotFound)
	}
	for _, want := range seats {
		for _, have := range show.BookedSeats {
			if want == have {
				return nil, fmt.Errorf("show %s: %w", showID, utils.ErrSeatConflict)
			}
		}
	}
	show.BookedSeats = append(show.BookedSeats, seats...)
	return append([]string{}, show.BookedSeats...), nil
}

func (r fakeShows) ReserveSeats(_ context.Context, showID uuid.UUID, seats []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.reserveLocked(showID, seats)
}

// bookings

type fakeBookings struct{ s *store }

func (r fakeBookings) CreateConfirmed(_ context.Context, b *entity.Booking) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booked, err := r.s.reserveLocked(b.ShowID, b.Seats)
	if err != nil {
		return nil, err
	}
	cp := *b
	cp.Seats = append([]string{}, b.Seats...)
	r.s.bookings = append(r.s.bookings, &cp)
	return booked, nil
}

func (r fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeBookings) filter(match func(*entity.Booking) bool) []*entity.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Booking
	for i := len(r.s.bookings) - 1; i >= 0; i-- {
		if b := r.s.bookings[i]; match(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func ownedBy(userID uuid.UUID) func(*entity.Booking) bool {
	return func(b *entity.Booking) bool { return b.UserID != nil && *b.UserID == userID }
}

func withStatus(status string) func(*entity.Booking) bool {
	return func(b *entity.Booking) bool { return status == "" || string(b.Status) == status }
}

func (r fakeBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return paginate(r.filter(ownedBy(userID)), limit, offset), nil
}

func (r fakeBookings) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.filter(ownedBy(userID)))), nil
}

func (r fakeBookings) FindAll(_ context.Context, status string, limit, offset int) ([]*entity.Booking, error) {
	return paginate(r.filter(withStatus(status)), limit, offset), nil
}

func (r fakeBookings) CountAll(_ context.Context, status string) (int64, error) {
	return int64(len(r.filter(withStatus(status)))), nil
}

func (r fakeBookings) RevenueByMovie(_ context.Context) ([]entity.MovieRevenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revenueCalls++
	byTitle := make(map[string]*entity.MovieRevenue)
	var titles []string
	for _, b := range r.s.bookings {
		if b.Status != entity.BookingStatusConfirmed {
			continue
		}
		row, ok := byTitle[b.MovieTitle]
		if !ok {
			row = &entity.MovieRevenue{MovieTitle: b.MovieTitle}
			byTitle[b.MovieTitle] = row
			titles = append(titles, b.MovieTitle)
		}
		row.Bookings++
		row.Tickets += int64(len(b.Seats))
		row.Revenue += b.TotalAmount
	}
	sort.Strings(titles)
	out := make([]entity.MovieRevenue, 0, len(titles))
	for _, t := range titles {
		out = append(out, *byTitle[t])
	}
	return out, nil
}

// reviews

type fakeReviews struct{ s *store }

func (r fakeReviews) Create(_ context.Context, rv *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.reviews {
		if other.UserID == rv.UserID && other.MovieID == rv.MovieID {
			return fmt.Errorf("create review: %w", utils.ErrDuplicate)
		}
	}
	cp := *rv
	r.s.reviews[rv.ID] = &cp
	return nil
}

func (r fakeReviews) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rv, ok := r.s.reviews[id]; ok {
		cp := *rv
		return &cp, nil
	}
	return nil, nil
}

func (r fakeReviews) filter(match func(*entity.Review) bool) []*entity.Review {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Review
	for _, rv := range r.s.reviews {
		if match(rv) {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r fakeReviews) FindByUserAndMovie(_ context.Context, userID, movieID uuid.UUID) (*entity.Review, error) {
	found := r.filter(func(rv *entity.Review) bool { return rv.UserID == userID && rv.MovieID == movieID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r fakeReviews) FindByMovieID(_ context.Context, movieID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return paginate(r.filter(func(rv *entity.Review) bool { return rv.MovieID == movieID }), limit, offset), nil
}

func (r fakeReviews) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return paginate(r.filter(func(rv *entity.Review) bool { return rv.UserID == userID }), limit, offset), nil
}

func (r fakeReviews) FindAll(_ context.Context, limit, offset int) ([]*entity.Review, error) {
	return paginate(r.filter(func(*entity.Review) bool { return true }), limit, offset), nil
}

func (r fakeReviews) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(rv *entity.Review) bool { return rv.UserID == userID }))), nil
}

func (r fakeReviews) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.reviews)), nil
}

func (r fakeReviews) Update(_ context.Context, rv *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[rv.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *rv
	r.s.reviews[rv.ID] = &cp
	return nil
}

func (r fakeReviews) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r fakeReviews) IncrementHelpful(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return 0, utils.ErrNotFound
	}
	rv.Helpful++
	return rv.Helpful, nil
}

func (r fakeReviews) GetMovieReviewStats(_ context.Context, movieID uuid.UUID) (float64, int64, error) {
	found := r.filter(func(rv *entity.Review) bool { return rv.MovieID == movieID })
	if len(found) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, rv := range found {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(found)), int64(len(found)), nil
}

// mockNotifier records notifications.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, ev notification.BookingConfirmedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockNotifier) ReviewPosted(ctx context.Context, ev notification.ReviewPostedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockNotifier) OTPIssued(ctx context.Context, ev notification.OTPIssuedEvent) error {
	return m.Called(ctx, ev).Error(0)
}
