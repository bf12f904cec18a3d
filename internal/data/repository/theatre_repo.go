package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"cinebook/internal/data/entity"
	"cinebook/pkg/database"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TheatreRepository interface {
	Create(ctx context.Context, theatre *entity.Theatre) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Theatre, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Theatre, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Theatre, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, theatre *entity.Theatre) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type theatreRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTheatreRepository(db database.PgxIface, log *zap.Logger) TheatreRepository {
	return &theatreRepository{
		db:  db,
		log: log.With(zap.String("repository", "theatre")),
	}
}

// Screens travel as JSON text so the mock pool and the real pool scan alike.
func scanTheatre(row pgx.Row) (*entity.Theatre, error) {
	var (
		theatre entity.Theatre
		screens []byte
	)
	err := row.Scan(
		&theatre.ID,
		&theatre.Name,
		&theatre.Location,
		&screens,
		&theatre.CreatedAt,
		&theatre.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(screens, &theatre.Screens); err != nil {
		return nil, fmt.Errorf("decode screens of theatre %s: %w", theatre.ID, err)
	}
	return &theatre, nil
}

func encodeScreens(screens []entity.Screen) (string, error) {
	if screens == nil {
		screens = []entity.Screen{}
	}
	b, err := json.Marshal(screens)
	if err != nil {
		return "", fmt.Errorf("encode screens: %w", err)
	}
	return string(b), nil
}

func (r *theatreRepository) Create(ctx context.Context, theatre *entity.Theatre) error {
	screens, err := encodeScreens(theatre.Screens)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO theatres (id, name, location, screens, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`

	_, err = r.db.Exec(ctx, query,
		theatre.ID,
		theatre.Name,
		theatre.Location,
		screens,
		theatre.CreatedAt,
		theatre.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create theatre",
			zap.Error(err),
			zap.String("name", theatre.Name),
		)
		return fmt.Errorf("create theatre %s: %w", theatre.Name, err)
	}

	return nil
}

func (r *theatreRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Theatre, error) {
	query := `SELECT id, name, location, screens::text, created_at, updated_at FROM theatres WHERE id = $1`

	theatre, err := scanTheatre(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find theatre by ID",
			zap.Error(err),
			zap.String("theatre_id", id.String()),
		)
		return nil, fmt.Errorf("find theatre by ID %s: %w", id.String(), err)
	}

	return theatre, nil
}

// FindByIDs loads several theatres in one round trip. Unknown ids are absent.
func (r *theatreRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Theatre, error) {
	out := make(map[uuid.UUID]*entity.Theatre, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT id, name, location, screens::text, created_at, updated_at FROM theatres WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to find theatres by IDs", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("find theatres by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		theatre, err := scanTheatre(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theatre row: %w", err)
		}
		out[theatre.ID] = theatre
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate theatre rows: %w", err)
	}

	return out, nil
}

func (r *theatreRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Theatre, error) {
	query := `
		SELECT id, name, location, screens::text, created_at, updated_at
		FROM theatres
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to get all theatres", zap.Error(err))
		return nil, fmt.Errorf("find all theatres: %w", err)
	}
	defer rows.Close()

	var theatres []*entity.Theatre
	for rows.Next() {
		theatre, err := scanTheatre(rows)
		if err != nil {
			r.log.Error("Failed to scan theatre row", zap.Error(err))
			return nil, fmt.Errorf("scan theatre row: %w", err)
		}
		theatres = append(theatres, theatre)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate theatre rows: %w", err)
	}

	return theatres, nil
}

func (r *theatreRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM theatres`).Scan(&count); err != nil {
		r.log.Error("Failed to count theatres", zap.Error(err))
		return 0, fmt.Errorf("count theatres: %w", err)
	}
	return count, nil
}

func (r *theatreRepository) Update(ctx context.Context, theatre *entity.Theatre) error {
	screens, err := encodeScreens(theatre.Screens)
	if err != nil {
		return err
	}

	query := `
		UPDATE theatres
		SET name = $2, location = $3, screens = $4::jsonb, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		theatre.ID,
		theatre.Name,
		theatre.Location,
		screens,
		theatre.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update theatre",
			zap.Error(err),
			zap.String("theatre_id", theatre.ID.String()),
		)
		return fmt.Errorf("update theatre %s: %w", theatre.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("theatre %s: %w", theatre.ID.String(), utils.ErrNotFound)
	}

	return nil
}

func (r *theatreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM theatres WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete theatre",
			zap.Error(err),
			zap.String("theatre_id", id.String()),
		)
		return fmt.Errorf("delete theatre %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("theatre %s: %w", id.String(), utils.ErrNotFound)
	}

	r.log.Info("Theatre deleted", zap.String("theatre_id", id.String()))
	return nil
}
