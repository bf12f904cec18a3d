package repository

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *entity.OTP) error
	// Consume marks the newest matching unused code as used and returns it,
	// or returns nil when no valid code matches. A code is consumed at most once.
	Consume(ctx context.Context, email, code string, otpType entity.OTPType, now time.Time) (*entity.OTP, error)
}

type otpRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOTPRepository(db database.PgxIface, log *zap.Logger) OTPRepository {
	return &otpRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp")),
	}
}

func (r *otpRepository) Create(ctx context.Context, otp *entity.OTP) error {
	query := `
		INSERT INTO otps (id, user_id, email, otp_code, otp_type, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		otp.ID,
		otp.UserID,
		otp.Email,
		otp.OTPCode,
		otp.OTPType,
		otp.ExpiresAt,
		otp.IsUsed,
		otp.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create OTP",
			zap.Error(err),
			zap.String("email", otp.Email),
			zap.String("otp_type", string(otp.OTPType)),
		)
		return fmt.Errorf("create OTP for %s: %w", otp.Email, err)
	}

	return nil
}

func (r *otpRepository) Consume(ctx context.Context, email, code string, otpType entity.OTPType, now time.Time) (*entity.OTP, error) {
	query := `
		UPDATE otps
		SET is_used = TRUE
		WHERE id = (
			SELECT id FROM otps
			WHERE email = $1 AND otp_code = $2 AND otp_type = $3
			  AND NOT is_used AND expires_at > $4
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		) AND NOT is_used
		RETURNING id, user_id, email, otp_code, otp_type, expires_at, is_used, created_at
	`

	var otp entity.OTP
	err := r.db.QueryRow(ctx, query, email, code, otpType, now).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.OTPCode,
		&otp.OTPType,
		&otp.ExpiresAt,
		&otp.IsUsed,
		&otp.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to consume OTP",
			zap.Error(err),
			zap.String("email", email),
			zap.String("otp_type", string(otpType)),
		)
		return nil, fmt.Errorf("consume OTP for %s: %w", email, err)
	}

	return &otp, nil
}
