package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OTPType string

const (
	OTPTypeEmailVerification OTPType = "email_verification"
	OTPTypePasswordReset     OTPType = "password_reset"
)

// Label is the human form used in mail, e.g. "password reset".
func (t OTPType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// OTP is a one-time code mailed to a user. It is consumed at most once.
type OTP struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Email     string    `db:"email"`
	OTPCode   string    `db:"otp_code"`
	OTPType   OTPType   `db:"otp_type"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
}

// Usable reports whether the code can still be consumed at now.
func (o *OTP) Usable(now time.Time) bool {
	return !o.IsUsed && o.ExpiresAt.After(now)
}
