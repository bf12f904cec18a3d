package repository

import (
	"context"
	"fmt"

	"cinebook/internal/data/entity"
	"cinebook/pkg/database"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MovieRepository interface {
	Create(ctx context.Context, movie *entity.Movie) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.Movie, error)
	FindAll(ctx context.Context, language string, limit, offset int) ([]*entity.Movie, error)
	CountAll(ctx context.Context, language string) (int64, error)
	Update(ctx context.Context, movie *entity.Movie) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type movieRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewMovieRepository(db database.PgxIface, log *zap.Logger) MovieRepository {
	return &movieRepository{
		db:  db,
		log: log.With(zap.String("repository", "movie")),
	}
}

const movieColumns = `id, external_id, title, languages, certificate, price_range,
		       release_date, created_at, updated_at`

func scanMovie(row pgx.Row) (*entity.Movie, error) {
	var movie entity.Movie
	err := row.Scan(
		&movie.ID,
		&movie.ExternalID,
		&movie.Title,
		&movie.Languages,
		&movie.Certificate,
		&movie.PriceRange,
		&movie.ReleaseDate,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepository) Create(ctx context.Context, movie *entity.Movie) error {
	query := `
		INSERT INTO movies (id, external_id, title, languages, certificate, price_range,
		                    release_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		movie.ID,
		movie.ExternalID,
		movie.Title,
		movie.Languages,
		movie.Certificate,
		movie.PriceRange,
		movie.ReleaseDate,
		movie.CreatedAt,
		movie.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("movie %s: %w", movie.ExternalID, utils.ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create movie",
			zap.Error(err),
			zap.String("external_id", movie.ExternalID),
		)
		return fmt.Errorf("create movie %s: %w", movie.ExternalID, err)
	}

	return nil
}

func (r *movieRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find movie by ID",
			zap.Error(err),
			zap.String("movie_id", id.String()),
		)
		return nil, fmt.Errorf("find movie by ID %s: %w", id.String(), err)
	}

	return movie, nil
}

func (r *movieRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE external_id = $1`

	movie, err := scanMovie(r.db.QueryRow(ctx, query, externalID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find movie by external ID",
			zap.Error(err),
			zap.String("external_id", externalID),
		)
		return nil, fmt.Errorf("find movie by external ID %s: %w", externalID, err)
	}

	return movie, nil
}

// FindAll lists movies newest release first. An empty language matches all.
func (r *movieRepository) FindAll(ctx context.Context, language string, limit, offset int) ([]*entity.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE ($1 = '' OR $1 = ANY(languages))
		ORDER BY release_date DESC NULLS LAST, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, language, limit, offset)
	if err != nil {
		r.log.Error("Failed to get all movies",
			zap.Error(err),
			zap.String("language", language),
		)
		return nil, fmt.Errorf("find all movies: %w", err)
	}
	defer rows.Close()

	var movies []*entity.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			r.log.Error("Failed to scan movie row", zap.Error(err))
			return nil, fmt.Errorf("scan movie row: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie rows: %w", err)
	}

	return movies, nil
}

func (r *movieRepository) CountAll(ctx context.Context, language string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movies WHERE ($1 = '' OR $1 = ANY(languages))`, language).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count movies", zap.Error(err))
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func (r *movieRepository) Update(ctx context.Context, movie *entity.Movie) error {
	query := `
		UPDATE movies
		SET external_id = $2, title = $3, languages = $4, certificate = $5,
		    price_range = $6, release_date = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		movie.ID,
		movie.ExternalID,
		movie.Title,
		movie.Languages,
		movie.Certificate,
		movie.PriceRange,
		movie.ReleaseDate,
		movie.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("movie %s: %w", movie.ExternalID, utils.ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to update movie",
			zap.Error(err),
			zap.String("movie_id", movie.ID.String()),
		)
		return fmt.Errorf("update movie %s: %w", movie.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("movie %s: %w", movie.ID.String(), utils.ErrNotFound)
	}

	return nil
}

func (r *movieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete movie",
			zap.Error(err),
			zap.String("movie_id", id.String()),
		)
		return fmt.Errorf("delete movie %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("movie %s: %w", id.String(), utils.ErrNotFound)
	}

	r.log.Info("Movie deleted", zap.String("movie_id", id.String()))
	return nil
}
