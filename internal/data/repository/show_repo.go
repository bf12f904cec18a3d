package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/pkg/database"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowRepository interface {
	Create(ctx context.Context, show *entity.Show) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error)
	FindUpcomingByMovie(ctx context.Context, movieID uuid.UUID, showDate string, after time.Time) ([]*entity.Show, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Show, error)
	CountAll(ctx context.Context) (int64, error)
	FindBookedByTheatre(ctx context.Context, theatreID uuid.UUID, after time.Time) ([]*entity.Show, error)
	Update(ctx context.Context, show *entity.Show, allowedSeats []string) error
	Delete(ctx context.Context, id uuid.UUID) error
	BackfillShowDates(ctx context.Context, timezone string) (int64, error)

	// ReserveSeats atomically adds seats to the show's booked set if none of
	// them is booked yet, and returns the full set after the update.
	ReserveSeats(ctx context.Context, showID uuid.UUID, seats []string) ([]string, error)
}

type showRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowRepository(db database.PgxIface, log *zap.Logger) ShowRepository {
	return &showRepository{
		db:  db,
		log: log.With(zap.String("repository", "show")),
	}
}

// The predicate and the append run as one statement. Under READ COMMITTED a
// concurrent writer of the same row blocks here and the predicate is
// re-evaluated against the committed row, so overlapping batches cannot both
// succeed.
const reserveSeatsQuery = `
	WITH target AS (
		SELECT id FROM shows WHERE id = $1
	), reserved AS (
		UPDATE shows
		SET booked_seats = booked_seats || $2::text[],
		    updated_at = NOW()
		WHERE id = $1
		  AND NOT (booked_seats && $2::text[])
		RETURNING booked_seats
	)
	SELECT
		EXISTS (SELECT 1 FROM target),
		EXISTS (SELECT 1 FROM reserved),
		COALESCE((SELECT booked_seats FROM reserved), '{}'::text[])
`

func reserveSeats(ctx context.Context, q rowQuerier, showID uuid.UUID, seats []string) ([]string, error) {
	var found, reserved bool
	var booked []string
	if err := q.QueryRow(ctx, reserveSeatsQuery, showID, seats).Scan(&found, &reserved, &booked); err != nil {
		return nil, fmt.Errorf("reserve seats on show %s: %w", showID, err)
	}
	if !found {
		return nil, fmt.Errorf("show %s: %w", showID, utils.ErrNotFound)
	}
	if !reserved {
		return nil, fmt.Errorf("show %s: %w", showID, utils.ErrSeatConflict)
	}
	return booked, nil
}

func (r *showRepository) ReserveSeats(ctx context.Context, showID uuid.UUID, seats []string) ([]string, error) {
	booked, err := reserveSeats(ctx, r.db, showID, seats)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) && !errors.Is(err, utils.ErrSeatConflict) {
			r.log.Error("Failed to reserve seats",
				zap.Error(err),
				zap.String("show_id", showID.String()),
				zap.Strings("seats", seats),
			)
		}
		return nil, err
	}
	return booked, nil
}

func (r *showRepository) Create(ctx context.Context, show *entity.Show) error {
	query := `
		INSERT INTO shows (id, movie_id, theatre_id, screen_number, showtime, price,
		                   available, show_date, booked_seats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		show.ID,
		show.MovieID,
		show.TheatreID,
		show.ScreenNumber,
		show.Showtime,
		show.Price,
		show.Available,
		show.ShowDate,
		show.CreatedAt,
		show.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create show",
			zap.Error(err),
			zap.String("movie_id", show.MovieID.String()),
			zap.String("theatre_id", show.TheatreID.String()),
		)
		return fmt.Errorf("create show: %w", err)
	}

	show.BookedSeats = []string{}
	return nil
}

const showColumns = `id, movie_id, theatre_id, screen_number, showtime, price,
		       available, show_date, booked_seats, created_at, updated_at`

func scanShow(row pgx.Row) (*entity.Show, error) {
	var show entity.Show
	err := row.Scan(
		&show.ID,
		&show.MovieID,
		&show.TheatreID,
		&show.ScreenNumber,
		&show.Showtime,
		&show.Price,
		&show.Available,
		&show.ShowDate,
		&show.BookedSeats,
		&show.CreatedAt,
		&show.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (r *showRepository) collect(rows pgx.Rows) ([]*entity.Show, error) {
	var shows []*entity.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			r.log.Error("Failed to scan show row", zap.Error(err))
			return nil, fmt.Errorf("scan show row: %w", err)
		}
		shows = append(shows, show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate show rows: %w", err)
	}
	return shows, nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`

	show, err := scanShow(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find show by ID",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return nil, fmt.Errorf("find show by ID %s: %w", id.String(), err)
	}

	return show, nil
}

// FindUpcomingByMovie lists available shows starting after the given time.
// An empty showDate matches every date.
func (r *showRepository) FindUpcomingByMovie(ctx context.Context, movieID uuid.UUID, showDate string, after time.Time) ([]*entity.Show, error) {
	query := `SELECT ` + showColumns + `
		FROM shows
		WHERE movie_id = $1
		  AND available
		  AND showtime > $2
		  AND ($3 = '' OR show_date = $3)
		ORDER BY showtime
	`

	rows, err := r.db.Query(ctx, query, movieID, after, showDate)
	if err != nil {
		r.log.Error("Failed to find shows by movie",
			zap.Error(err),
			zap.String("movie_id", movieID.String()),
			zap.String("show_date", showDate),
		)
		return nil, fmt.Errorf("find shows by movie %s: %w", movieID.String(), err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// FindAll lists every show regardless of availability, latest showtime first.
func (r *showRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Show, error) {
	query := `SELECT ` + showColumns + `
		FROM shows
		ORDER BY showtime DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to get all shows", zap.Error(err))
		return nil, fmt.Errorf("find all shows: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// FindBookedByTheatre lists shows at the theatre starting after the given
// time that have at least one booked seat.
func (r *showRepository) FindBookedByTheatre(ctx context.Context, theatreID uuid.UUID, after time.Time) ([]*entity.Show, error) {
	query := `SELECT ` + showColumns + `
		FROM shows
		WHERE theatre_id = $1
		  AND showtime > $2
		  AND cardinality(booked_seats) > 0
		ORDER BY showtime
	`

	rows, err := r.db.Query(ctx, query, theatreID, after)
	if err != nil {
		r.log.Error("Failed to find booked shows by theatre",
			zap.Error(err),
			zap.String("theatre_id", theatreID.String()),
		)
		return nil, fmt.Errorf("find booked shows by theatre %s: %w", theatreID.String(), err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *showRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM shows`).Scan(&count); err != nil {
		r.log.Error("Failed to count shows", zap.Error(err))
		return 0, fmt.Errorf("count shows: %w", err)
	}
	return count, nil
}

// Update changes schedule fields and never touches booked_seats. It refuses
// the change when a booked seat would fall outside allowedSeats.
func (r *showRepository) Update(ctx context.Context, show *entity.Show, allowedSeats []string) error {
	query := `
		UPDATE shows
		SET screen_number = $2, showtime = $3, price = $4, available = $5,
		    show_date = $6, updated_at = $7
		WHERE id = $1
		  AND booked_seats <@ $8::text[]
	`

	result, err := r.db.Exec(ctx, query,
		show.ID,
		show.ScreenNumber,
		show.Showtime,
		show.Price,
		show.Available,
		show.ShowDate,
		show.UpdatedAt,
		allowedSeats,
	)
	if err != nil {
		r.log.Error("Failed to update show",
			zap.Error(err),
			zap.String("show_id", show.ID.String()),
		)
		return fmt.Errorf("update show %s: %w", show.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shows WHERE id = $1)`, show.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check show %s: %w", show.ID.String(), err)
		}
		if !exists {
			return fmt.Errorf("show %s: %w", show.ID.String(), utils.ErrNotFound)
		}
		return fmt.Errorf("show %s: %w", show.ID.String(),
			utils.Invalid("screen_number", "Booked seats do not fit the new screen"))
	}

	return nil
}

func (r *showRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete show",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return fmt.Errorf("delete show %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("show %s: %w", id.String(), utils.ErrNotFound)
	}

	r.log.Info("Show deleted", zap.String("show_id", id.String()))
	return nil
}

// BackfillShowDates fills empty show_date values from showtime in timezone.
func (r *showRepository) BackfillShowDates(ctx context.Context, timezone string) (int64, error) {
	query := `
		UPDATE shows
		SET show_date = to_char(showtime AT TIME ZONE $1, 'YYYY-MM-DD'),
		    updated_at = NOW()
		WHERE show_date = ''
	`

	result, err := r.db.Exec(ctx, query, timezone)
	if err != nil {
		r.log.Error("Failed to backfill show dates", zap.Error(err), zap.String("timezone", timezone))
		return 0, fmt.Errorf("backfill show dates: %w", err)
	}

	return result.RowsAffected(), nil
}
