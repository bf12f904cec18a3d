package repository

import (
	"context"
	"fmt"

	"cinebook/internal/data/entity"
	"cinebook/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// CreateConfirmed reserves the booking's seats on its show and inserts the
	// booking in one transaction. It returns the show's booked seats.
	CreateConfirmed(ctx context.Context, booking *entity.Booking) ([]string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, status string, limit, offset int) ([]*entity.Booking, error)
	CountAll(ctx context.Context, status string) (int64, error)

	// Reporting
	RevenueByMovie(ctx context.Context) ([]entity.MovieRevenue, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const insertBookingQuery = `
	INSERT INTO bookings (id, booking_ref, user_id, customer_name, customer_email,
	                      movie_id, movie_title, show_id, theatre_id, theatre_name,
	                      showtime, seats, total_amount, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

func (r *bookingRepository) CreateConfirmed(ctx context.Context, booking *entity.Booking) (booked []string, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin booking transaction", zap.Error(err))
		return nil, fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				r.log.Warn("Failed to roll back booking transaction", zap.Error(rbErr))
			}
		}
	}()

	booked, err = reserveSeats(ctx, tx, booking.ShowID, booking.Seats)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, insertBookingQuery,
		booking.ID,
		booking.BookingRef,
		booking.UserID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.MovieID,
		booking.MovieTitle,
		booking.ShowID,
		booking.TheatreID,
		booking.TheatreName,
		booking.Showtime,
		booking.Seats,
		booking.TotalAmount,
		booking.Status,
		booking.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("booking_ref", booking.BookingRef),
			zap.String("show_id", booking.ShowID.String()),
		)
		return nil, fmt.Errorf("create booking %s: %w", booking.BookingRef, err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit booking",
			zap.Error(err),
			zap.String("booking_ref", booking.BookingRef),
		)
		return nil, fmt.Errorf("commit booking %s: %w", booking.BookingRef, err)
	}

	return booked, nil
}

const bookingColumns = `id, booking_ref, user_id, customer_name, customer_email,
		       movie_id, movie_title, show_id, theatre_id, theatre_name,
		       showtime, seats, total_amount, status, created_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingRef,
		&b.UserID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.MovieID,
		&b.MovieTitle,
		&b.ShowID,
		&b.TheatreID,
		&b.TheatreName,
		&b.Showtime,
		&b.Seats,
		&b.TotalAmount,
		&b.Status,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return b, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user %s: %w", userID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count bookings by user %s: %w", userID.String(), err)
	}
	return count, nil
}

// FindAll lists every booking, newest first. An empty status matches all.
func (r *bookingRepository) FindAll(ctx context.Context, status string, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find all bookings", zap.Error(err), zap.String("status", status))
		return nil, fmt.Errorf("find all bookings: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountAll(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE ($1 = '' OR status = $1)`, status).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (r *bookingRepository) RevenueByMovie(ctx context.Context) ([]entity.MovieRevenue, error) {
	query := `
		SELECT movie_title,
		       COUNT(*)                        AS bookings,
		       COALESCE(SUM(cardinality(seats)), 0) AS tickets,
		       COALESCE(SUM(total_amount), 0)::float8 AS revenue
		FROM bookings
		WHERE status = 'confirmed'
		GROUP BY movie_title
		ORDER BY revenue DESC, movie_title
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to aggregate revenue", zap.Error(err))
		return nil, fmt.Errorf("aggregate revenue by movie: %w", err)
	}
	defer rows.Close()

	var out []entity.MovieRevenue
	for rows.Next() {
		var m entity.MovieRevenue
		if err := rows.Scan(&m.MovieTitle, &m.Bookings, &m.Tickets, &m.Revenue); err != nil {
			return nil, fmt.Errorf("scan revenue row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue rows: %w", err)
	}
	return out, nil
}
