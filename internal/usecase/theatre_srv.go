package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/pkg/seatmap"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

type TheatreService interface {
	CreateTheatre(ctx context.Context, req *request.TheatreRequest) (*response.TheatreResponse, error)
	UpdateTheatre(ctx context.Context, id string, req *request.TheatreRequest) (*response.TheatreResponse, error)
	DeleteTheatre(ctx context.Context, id string) error
	GetTheatre(ctx context.Context, id string) (*response.TheatreResponse, error)
	ListTheatres(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.TheatreResponse], error)
}

type theatreService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewTheatreService(repo *repository.Repository, now func() time.Time, log *zap.Logger) TheatreService {
	return &theatreService{
		repo: repo,
		now:  now,
		log:  log.With(zap.String("service", "theatre")),
	}
}

func screensFrom(req []request.ScreenRequest) []entity.Screen {
	screens := make([]entity.Screen, len(req))
	for i, s := range req {
		screens[i] = entity.Screen{ScreenNumber: s.ScreenNumber, Capacity: s.Capacity}
	}
	return screens
}

func (s *theatreService) CreateTheatre(ctx context.Context, req *request.TheatreRequest) (*response.TheatreResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	theatre := &entity.Theatre{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		Name:         strings.TrimSpace(req.Name),
		Location:     strings.TrimSpace(req.Location),
		Screens:      screensFrom(req.Screens),
	}

	if err := s.repo.Theatre.Create(ctx, theatre); err != nil {
		return nil, err
	}

	s.log.Info("Theatre created",
		zap.String("theatre_id", theatre.ID.String()),
		zap.Int("screens", len(theatre.Screens)),
	)

	resp := response.TheatreToResponse(theatre)
	return &resp, nil
}

// UpdateTheatre replaces the theatre's fields and screen list. An edit that
// would drop a screen or shrink it below seats already booked for an upcoming
// show is rejected.
func (s *theatreService) UpdateTheatre(ctx context.Context, id string, req *request.TheatreRequest) (*response.TheatreResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	theatre, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	theatre.Name = strings.TrimSpace(req.Name)
	theatre.Location = strings.TrimSpace(req.Location)
	theatre.Screens = screensFrom(req.Screens)
	theatre.UpdatedAt = s.now()

	if err := s.checkBookedSeatsFit(ctx, theatre); err != nil {
		return nil, err
	}
	if err := s.repo.Theatre.Update(ctx, theatre); err != nil {
		return nil, err
	}

	resp := response.TheatreToResponse(theatre)
	return &resp, nil
}

func (s *theatreService) checkBookedSeatsFit(ctx context.Context, theatre *entity.Theatre) error {
	shows, err := s.repo.Show.FindBookedByTheatre(ctx, theatre.ID, s.now())
	if err != nil {
		return err
	}
	for _, show := range shows {
		capacity := theatre.CapacityOf(show.ScreenNumber)
		if capacity == nil {
			return utils.Invalid("screens", fmt.Sprintf("Screen %d has upcoming bookings and cannot be removed", show.ScreenNumber))
		}
		if err := seatmap.Validate(show.BookedSeats, seatmap.EffectiveCapacity(capacity)); err != nil {
			return utils.Invalid("screens", fmt.Sprintf("Screen %d has booked seats beyond a capacity of %d", show.ScreenNumber, *capacity))
		}
	}
	return nil
}

func (s *theatreService) DeleteTheatre(ctx context.Context, id string) error {
	theatreID, err := parseID("theatre", id)
	if err != nil {
		return err
	}
	return s.repo.Theatre.Delete(ctx, theatreID)
}

func (s *theatreService) load(ctx context.Context, id string) (*entity.Theatre, error) {
	theatreID, err := parseID("theatre", id)
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
	return theatre, nil
}

func (s *theatreService) GetTheatre(ctx context.Context, id string) (*response.TheatreResponse, error) {
	theatre, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.TheatreToResponse(theatre)
	return &resp, nil
}

func (s *theatreService) ListTheatres(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.TheatreResponse], error) {
	theatres, err := s.repo.Theatre.FindAll(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Theatre.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]response.TheatreResponse, 0, len(theatres))
	for _, t := range theatres {
		data = append(data, response.TheatreToResponse(t))
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}
