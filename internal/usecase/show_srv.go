package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/pkg/seatmap"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ShowService interface {
	CreateShow(ctx context.Context, req *request.CreateShowRequest) (*response.ShowResponse, error)
	UpdateShow(ctx context.Context, id string, req *request.UpdateShowRequest) (*response.ShowResponse, error)
	DeleteShow(ctx context.Context, id string) error
	GetShow(ctx context.Context, id string) (*response.ShowResponse, error)
	GetShowtimes(ctx context.Context, movieRef, date string) ([]response.TheatreShowtimes, error)
	ListShows(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.ShowResponse], error)
	BackfillShowDates(ctx context.Context) (*response.BackfillResponse, error)

	// GetBookedSeats is a point read of the show's booked set and layout.
	GetBookedSeats(ctx context.Context, id string) (*response.SeatMapResponse, error)
	// ReserveSeats books every requested seat or none of them.
	ReserveSeats(ctx context.Context, id string, req *request.ReserveSeatsRequest) (*response.ReserveSeatsResponse, error)
}

type showService struct {
	repo *repository.Repository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

func NewShowService(repo *repository.Repository, loc *time.Location, now func() time.Time, log *zap.Logger) ShowService {
	if loc == nil {
		loc = time.UTC
	}
	return &showService{
		repo: repo,
		loc:  loc,
		now:  now,
		log:  log.With(zap.String("service", "show")),
	}
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.NewError(utils.ErrNotFound, fmt.Sprintf("%s%s not found", strings.ToUpper(kind[:1]), kind[1:]))
	}
	return id, nil
}

// resolveMovie accepts a local UUID or an external id.
func resolveMovie(ctx context.Context, repo repository.MovieRepository, ref string) (*entity.Movie, error) {
	var (
		movie *entity.Movie
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		movie, err = repo.FindByID(ctx, id)
	} else {
		movie, err = repo.FindByExternalID(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Movie not found")
	}
	return movie, nil
}

func (s *showService) loadShow(ctx context.Context, rawID string) (*entity.Show, error) {
	id, err := parseID("show", rawID)
	if err != nil {
		return nil, err
	}
	show, err := s.repo.Show.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Show not found")
	}
	return show, nil
}

// capacity returns nil when the theatre or its screen is unknown.
func (s *showService) capacity(ctx context.Context, show *entity.Show) (*int, error) {
	theatre, err := s.repo.Theatre.FindByID(ctx, show.TheatreID)
	if err != nil {
		return nil, err
	}
	if theatre == nil {
		return nil, nil
	}
	return theatre.CapacityOf(show.ScreenNumber), nil
}

func (s *showService) CreateShow(ctx context.Context, req *request.CreateShowRequest) (*response.ShowResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	movie, err := resolveMovie(ctx, s.repo.Movie, req.MovieID)
	if err != nil {
		return nil, err
	}

	theatreID, err := parseID("theatre", req.TheatreID)
	if err != nil {
		return nil, err
	}
	theatre, err := s.repo.Theatre.FindByID(ctx, theatreID)
	if err != nil {
		return nil, err
	}
	if theatre == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Theatre not found")
	}
	capacity := theatre.CapacityOf(req.ScreenNumber)
	if capacity == nil {
		return nil, utils.Invalid("screen_number", fmt.Sprintf("Theatre has no screen %d", req.ScreenNumber))
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	now := s.now()
	show := &entity.Show{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		MovieID:      movie.ID,
		TheatreID:    theatre.ID,
		ScreenNumber: req.ScreenNumber,
		Showtime:     req.Showtime,
		Price:        req.Price,
		Available:    available,
		ShowDate:     entity.ShowDateIn(req.Showtime, s.loc),
	}

	if err := s.repo.Show.Create(ctx, show); err != nil {
		return nil, err
	}

	s.log.Info("Show created",
		zap.String("show_id", show.ID.String()),
		zap.String("movie_id", movie.ID.String()),
		zap.String("theatre_id", theatre.ID.String()),
		zap.Time("showtime", show.Showtime),
	)

	resp := response.ShowToResponse(show, capacity)
	return &resp, nil
}

func (s *showService) UpdateShow(ctx context.Context, id string, req *request.UpdateShowRequest) (*response.ShowResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	show, err := s.loadShow(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ScreenNumber != nil {
		show.ScreenNumber = *req.ScreenNumber
	}
	if req.Showtime != nil {
		show.Showtime = *req.Showtime
		show.ShowDate = entity.ShowDateIn(show.Showtime, s.loc)
	}
	if req.Price != nil {
		show.Price = *req.Price
	}
	if req.Available != nil {
		show.Available = *req.Available
	}
	show.UpdatedAt = s.now()

	capacity, err := s.capacity(ctx, show)
	if err != nil {
		return nil, err
	}
	if req.ScreenNumber != nil && capacity == nil {
		return nil, utils.Invalid("screen_number", fmt.Sprintf("Theatre has no screen %d", show.ScreenNumber))
	}

	// Booked seats must survive a screen change.
	allowed := seatmap.Rows(seatmap.EffectiveCapacity(capacity))
	flat := make([]string, 0, seatmap.EffectiveCapacity(capacity))
	for _, row := range allowed {
		flat = append(flat, row...)
	}

	if err := s.repo.Show.Update(ctx, show, flat); err != nil {
		return nil, err
	}

	resp := response.ShowToResponse(show, capacity)
	return &resp, nil
}

func (s *showService) DeleteShow(ctx context.Context, id string) error {
	showID, err := parseID("show", id)
	if err != nil {
		return err
	}
	return s.repo.Show.Delete(ctx, showID)
}

func (s *showService) GetShow(ctx context.Context, id string) (*response.ShowResponse, error) {
	show, err := s.loadShow(ctx, id)
	if err != nil {
		return nil, err
	}
	capacity, err := s.capacity(ctx, show)
	if err != nil {
		return nil, err
	}
	resp := response.ShowToResponse(show, capacity)
	return &resp, nil
}

func (s *showService) GetBookedSeats(ctx context.Context, id string) (*response.SeatMapResponse, error) {
	show, err := s.loadShow(ctx, id)
	if err != nil {
		return nil, err
	}
	capacity, err := s.capacity(ctx, show)
	if err != nil {
		return nil, err
	}

	booked := append([]string{}, show.BookedSeats...)
	return &response.SeatMapResponse{
		ShowID:       show.ID.String(),
		BookedSeats:  booked,
		SeatCapacity: capacity,
		Layout:       seatmap.Rows(seatmap.EffectiveCapacity(capacity)),
	}, nil
}

func (s *showService) ReserveSeats(ctx context.Context, id string, req *request.ReserveSeatsRequest) (*response.ReserveSeatsResponse, error) {
	// 1. Normalize before touching storage
	seats, err := seatmap.Normalize(req.Seats)
	if err != nil {
		return nil, err
	}

	// 2. Show must exist and not have started
	show, err := s.loadShow(ctx, id)
	if err != nil {
		return nil, err
	}
	if show.IsPast(s.now()) {
		return nil, utils.NewError(utils.ErrShowExpired, "Cannot book tickets for past shows")
	}

	// 3. Seats must exist on the screen
	capacity, err := s.capacity(ctx, show)
	if err != nil {
		return nil, err
	}
	if err := seatmap.Validate(seats, seatmap.EffectiveCapacity(capacity)); err != nil {
		return nil, err
	}

	// 4. Atomic compare-and-set
	booked, err := s.repo.Show.ReserveSeats(ctx, show.ID, seats)
	if err != nil {
		if errors.Is(err, utils.ErrSeatConflict) {
			s.log.Info("Seat conflict",
				zap.String("show_id", show.ID.String()),
				zap.Strings("seats", seats),
			)
		}
		return nil, err
	}

	s.log.Info("Seats reserved",
		zap.String("show_id", show.ID.String()),
		zap.Strings("seats", seats),
		zap.Int("booked_total", len(booked)),
	)

	return &response.ReserveSeatsResponse{
		ShowID:      show.ID.String(),
		BookedSeats: booked,
	}, nil
}

func (s *showService) GetShowtimes(ctx context.Context, movieRef, date string) ([]response.TheatreShowtimes, error) {
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, utils.Invalid("date", "Must be a date formatted YYYY-MM-DD")
		}
	}

	movie, err := resolveMovie(ctx, s.repo.Movie, movieRef)
	if err != nil {
		return nil, err
	}

	shows, err := s.repo.Show.FindUpcomingByMovie(ctx, movie.ID, date, s.now())
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(shows))
	seen := make(map[uuid.UUID]bool)
	for _, show := range shows {
		if !seen[show.TheatreID] {
			seen[show.TheatreID] = true
			ids = append(ids, show.TheatreID)
		}
	}
	theatres, err := s.repo.Theatre.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	groups := make(map[uuid.UUID]*response.TheatreShowtimes)
	for _, show := range shows {
		theatre, ok := theatres[show.TheatreID]
		if !ok {
			s.log.Warn("Show references unknown theatre",
				zap.String("show_id", show.ID.String()),
				zap.String("theatre_id", show.TheatreID.String()),
			)
			continue
		}
		group, ok := groups[theatre.ID]
		if !ok {
			group = &response.TheatreShowtimes{
				TheatreID:   theatre.ID.String(),
				TheatreName: theatre.Name,
				Location:    theatre.Location,
			}
			groups[theatre.ID] = group
		}
		group.Showtimes = append(group.Showtimes, response.ShowToResponse(show, theatre.CapacityOf(show.ScreenNumber)))
	}

	out := make([]response.TheatreShowtimes, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TheatreName < out[j].TheatreName })
	return out, nil
}

// ListShows is the admin view: every show, available or not, with its
// theatre name and screen capacity.
func (s *showService) ListShows(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.ShowResponse], error) {
	shows, err := s.repo.Show.FindAll(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Show.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(shows))
	for _, show := range shows {
		ids = append(ids, show.TheatreID)
	}
	theatres, err := s.repo.Theatre.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]response.ShowResponse, 0, len(shows))
	for _, show := range shows {
		var capacity *int
		theatre, ok := theatres[show.TheatreID]
		if ok {
			capacity = theatre.CapacityOf(show.ScreenNumber)
		}
		resp := response.ShowToResponse(show, capacity)
		if ok {
			resp.TheatreName = theatre.Name
		}
		data = append(data, resp)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *showService) BackfillShowDates(ctx context.Context) (*response.BackfillResponse, error) {
	n, err := s.repo.Show.BackfillShowDates(ctx, s.loc.String())
	if err != nil {
		return nil, err
	}
	s.log.Info("Show dates backfilled", zap.Int64("updated", n))
	return &response.BackfillResponse{Updated: n}, nil
}
