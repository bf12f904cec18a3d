package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken(t *testing.T) {
	userID, session := uuid.New(), uuid.New()

	raw, err := NewAccessToken("secret", userID, "admin", session, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseAccessToken("secret", raw)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, session.String(), claims.ID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseAccessToken("other-secret", raw)
	assert.ErrorIs(t, err, ErrUnauthorized)

	expired, err := NewAccessToken("secret", userID, "customer", session, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestGenerators(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 5, 7, 0, time.UTC)
	assert.Regexp(t, regexp.MustCompile(`^BOOK-20261016-090507-\d{4}$`), GenerateBookingRef(at))

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), GenerateOTP(0))
	assert.Regexp(t, regexp.MustCompile(`^\d{8}$`), GenerateOTP(8))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 10},
		{"3", 3},
		{"0", 10},
		{"-2", 10},
		{"abc", 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseInt(tt.in, 10), "input %q", tt.in)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	err := fmt.Errorf("reserve: %w", Invalid("seats", "No seats provided"))
	assert.ErrorIs(t, err, ErrValidation)
	msg, ok := PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Validation failed", msg)

	err = fmt.Errorf("get show: %w", NewError(ErrNotFound, "Show not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	msg, ok = PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Show not found", msg)

	_, ok = PublicMessage(errors.New("driver failure"))
	assert.False(t, ok)
}

func TestValidateStruct(t *testing.T) {
	type movie struct {
		ExternalID string `json:"external_id" validate:"required,externalid"`
		PriceRange string `json:"price_range" validate:"omitempty,pricerange"`
		ShowDate   string `json:"date" validate:"omitempty,showdate"`
	}

	assert.Empty(t, ValidateStruct(movie{ExternalID: "tt0816692", PriceRange: "200-400", ShowDate: "2026-10-16"}))

	errs := ValidateStruct(movie{ExternalID: "0816692", PriceRange: "cheap", ShowDate: "16/10/2026"})
	assert.Equal(t, map[string]string{
		"external_id": "Must be an IMDb id such as tt0111161",
		"price_range": "Must look like 200-400",
		"date":        "Must be a date formatted YYYY-MM-DD",
	}, errs)
}

func TestLoadConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"JWT_SECRET=file-secret\nPORT=9090\nCORS_ORIGINS=http://a.test, http://b.test\nAPP_TIMEZONE=Asia/Jakarta\n",
	), 0o600))
	t.Setenv("PORT", "7070")

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", config.App.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, config.App.CORSOrigins)
	assert.Equal(t, "Asia/Jakarta", config.App.Location().String())
	assert.Equal(t, 10*time.Second, config.App.ShutdownTimeout)
	assert.Equal(t, 6, config.OTP.Length)
}

func TestLoadConfigFrom_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestAppConfig_LocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, AppConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, time.UTC, AppConfig{}.Location())
}
