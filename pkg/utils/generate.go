package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ==================== TOKEN ====================

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== OTP ====================

// GenerateOTP creates a numeric code of the given length using crypto/rand.
func GenerateOTP(length int) string {
	if length <= 0 {
		length = 6
	}

	otp := make([]byte, length)
	for i := range otp {
		otp[i] = byte('0' + randomInt(10))
	}
	return string(otp)
}

// ==================== BOOKING REFERENCE ====================

// GenerateBookingRef returns BOOK-YYYYMMDD-HHMMSS-NNNN.
func GenerateBookingRef(now time.Time) string {
	return fmt.Sprintf("BOOK-%s-%s-%04d", now.Format("20060102"), now.Format("150405"), randomInt(10000))
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}

// ParseInt returns defaultValue unless value is a positive integer.
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}

	return result
}
