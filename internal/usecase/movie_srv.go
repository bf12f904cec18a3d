package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/pkg/omdb"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

type MovieService interface {
	GetMovies(ctx context.Context, page request.PaginatedRequest, language string) (*response.PaginatedResponse[response.MovieResponse], error)
	// GetMovie accepts a local UUID or an external id and attaches metadata
	// when the provider has it.
	GetMovie(ctx context.Context, ref string) (*response.MovieResponse, error)
	CreateMovie(ctx context.Context, req *request.MovieRequest) (*response.MovieResponse, error)
	UpdateMovie(ctx context.Context, id string, req *request.MovieUpdateRequest) (*response.MovieResponse, error)
	DeleteMovie(ctx context.Context, id string) error
	LookupMetadata(ctx context.Context, externalID string) (*omdb.Metadata, error)
}

type movieService struct {
	repo     *repository.Repository
	metadata omdb.Provider
	now      func() time.Time
	log      *zap.Logger
}

func NewMovieService(repo *repository.Repository, metadata omdb.Provider, now func() time.Time, log *zap.Logger) MovieService {
	return &movieService{
		repo:     repo,
		metadata: metadata,
		now:      now,
		log:      log.With(zap.String("service", "movie")),
	}
}

func (s *movieService) GetMovies(ctx context.Context, page request.PaginatedRequest, language string) (*response.PaginatedResponse[response.MovieResponse], error) {
	movies, err := s.repo.Movie.FindAll(ctx, language, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Movie.CountAll(ctx, language)
	if err != nil {
		return nil, err
	}

	data := make([]response.MovieResponse, 0, len(movies))
	for _, m := range movies {
		data = append(data, response.MovieToResponse(m))
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *movieService) GetMovie(ctx context.Context, ref string) (*response.MovieResponse, error) {
	movie, err := resolveMovie(ctx, s.repo.Movie, ref)
	if err != nil {
		return nil, err
	}

	resp := response.MovieToResponse(movie)
	if s.metadata != nil {
		md, err := s.metadata.Lookup(ctx, movie.ExternalID)
		if err != nil {
			s.log.Warn("Metadata lookup failed",
				zap.String("external_id", movie.ExternalID),
				zap.Error(err),
			)
		} else {
			resp.Metadata = md
		}
	}
	return &resp, nil
}

func (s *movieService) LookupMetadata(ctx context.Context, externalID string) (*omdb.Metadata, error) {
	if !strings.HasPrefix(externalID, "tt") {
		return nil, utils.Invalid("external_id", "Must be an IMDb id such as tt0111161")
	}
	if s.metadata == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Movie metadata is not available")
	}

	md, err := s.metadata.Lookup(ctx, externalID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.NewError(utils.ErrNotFound, "Movie not found in metadata provider")
	}
	if err != nil {
		s.log.Error("Metadata lookup failed", zap.String("external_id", externalID), zap.Error(err))
		return nil, err
	}
	return md, nil
}

// checkPriceRange enforces min <= max on a "min-max" string.
func checkPriceRange(pr *string) error {
	if pr == nil {
		return nil
	}
	parts := strings.SplitN(*pr, "-", 2)
	if len(parts) != 2 {
		return utils.Invalid("price_range", "Must look like 200-400")
	}
	lo, err1 := strconv.Atoi(parts[0])
	hi, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || lo > hi {
		return utils.Invalid("price_range", "Minimum must not exceed maximum")
	}
	return nil
}

func parseReleaseDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, utils.Invalid("release_date", "Must be a date formatted YYYY-MM-DD")
	}
	return &d, nil
}

func (s *movieService) CreateMovie(ctx context.Context, req *request.MovieRequest) (*response.MovieResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPriceRange(req.PriceRange); err != nil {
		return nil, err
	}
	releaseDate, err := parseReleaseDate(req.ReleaseDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Movie.FindByExternalID(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewError(utils.ErrDuplicate, "Movie already exists")
	}

	now := s.now()
	movie := &entity.Movie{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		ExternalID:   req.ExternalID,
		Title:        req.Title,
		Languages:    req.Languages,
		Certificate:  req.Certificate,
		PriceRange:   req.PriceRange,
		ReleaseDate:  releaseDate,
	}
	if movie.Languages == nil {
		movie.Languages = []string{}
	}

	if err := s.repo.Movie.Create(ctx, movie); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.NewError(utils.ErrDuplicate, "Movie already exists")
		}
		return nil, err
	}

	s.log.Info("Movie created",
		zap.String("movie_id", movie.ID.String()),
		zap.String("external_id", movie.ExternalID),
	)

	resp := response.MovieToResponse(movie)
	return &resp, nil
}

func (s *movieService) UpdateMovie(ctx context.Context, id string, req *request.MovieUpdateRequest) (*response.MovieResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPriceRange(req.PriceRange); err != nil {
		return nil, err
	}

	movieID, err := parseID("movie", id)
	if err != nil {
		return nil, err
	}
	movie, err := s.repo.Movie.FindByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Movie not found")
	}

	if req.ExternalID != nil {
		movie.ExternalID = *req.ExternalID
	}
	if req.Title != nil {
		movie.Title = req.Title
	}
	if req.Languages != nil {
		movie.Languages = *req.Languages
	}
	if req.Certificate != nil {
		movie.Certificate = req.Certificate
	}
	if req.PriceRange != nil {
		movie.PriceRange = req.PriceRange
	}
	if req.ReleaseDate != nil {
		if movie.ReleaseDate, err = parseReleaseDate(req.ReleaseDate); err != nil {
			return nil, err
		}
	}
	movie.UpdatedAt = s.now()

	if err := s.repo.Movie.Update(ctx, movie); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.NewError(utils.ErrDuplicate, "Movie already exists")
		}
		return nil, err
	}

	resp := response.MovieToResponse(movie)
	return &resp, nil
}

func (s *movieService) DeleteMovie(ctx context.Context, id string) error {
	movieID, err := parseID("movie", id)
	if err != nil {
		return err
	}
	if err := s.repo.Movie.Delete(ctx, movieID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.NewError(utils.ErrNotFound, "Movie not found")
		}
		return err
	}
	s.log.Info("Movie deleted", zap.String("movie_id", id))
	return nil
}
