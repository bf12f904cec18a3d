package usecase

import (
	"sync"
	"testing"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store    *store
	svc      *Service
	notifier *mockNotifier
	clock    *clock

	customer *entity.User
	movie    *entity.Movie
	theatre  *entity.Theatre
	show     *entity.Show
}

var fixtureNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func testConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{Timezone: "UTC"},
		JWT: utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		OTP: utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
	}
}

// newFixture seeds one customer, one movie and one theatre with a default
// screen, plus a show of that movie two hours from now.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		store:    newStore(),
		notifier: &mockNotifier{},
		clock:    &clock{now: fixtureNow},
	}
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("ReviewPosted", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("OTPIssued", mock.Anything, mock.Anything).Return(nil).Maybe()

	opts = append([]Option{WithNotifier(f.notifier), WithClock(f.clock.Now)}, opts...)
	f.svc = NewService(f.store.repository(), testConfig(), zap.NewNop(), opts...)

	title := "Interstellar"
	f.customer = &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: fixtureNow},
		Username: "ana",
		Email:    "ana@example.com",
		Role:     entity.RoleCustomer,
		IsActive: true,
	}
	f.movie = &entity.Movie{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		ExternalID:   "tt0816692",
		Title:        &title,
		Languages:    []string{"English"},
	}
	f.theatre = &entity.Theatre{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Name:         "Orion",
		Location:     "Downtown",
		Screens: []entity.Screen{
			{ScreenNumber: 1, Capacity: 84},
			{ScreenNumber: 2, Capacity: 24},
		},
	}
	f.show = f.addShow(f.theatre, 1, fixtureNow.Add(2*time.Hour))

	f.store.users[f.customer.ID] = f.customer
	f.store.movies[f.movie.ID] = f.movie
	f.store.theatres[f.theatre.ID] = f.theatre
	return f
}

func (f *fixture) addShow(theatre *entity.Theatre, screen int, at time.Time) *entity.Show {
	show := &entity.Show{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: fixtureNow, UpdatedAt: fixtureNow},
		MovieID:      f.movie.ID,
		TheatreID:    theatre.ID,
		ScreenNumber: screen,
		Showtime:     at,
		Price:        250,
		Available:    true,
		ShowDate:     entity.ShowDateIn(at, time.UTC),
		BookedSeats:  []string{},
	}
	f.store.mu.Lock()
	f.store.shows[show.ID] = show
	f.store.mu.Unlock()
	return show
}

func (f *fixture) bookedSeats(showID uuid.UUID) []string {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return append([]string{}, f.store.shows[showID].BookedSeats...)
}
