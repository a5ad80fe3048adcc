package otp

import (
	"crypto/rand"
	"math/big"
	"time"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
)

const (
	min  = 100000
	span = 900000
)

// Generate draws a 6-digit code uniformly from [100000, 999999], so the
// code never collapses to fewer digits, and stamps it with a wall-clock
// deadline. Codes are single-use: the store clears the pair atomically on
// consumption.
func Generate(validity time.Duration) (code string, expiresAt time.Time, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "generate otp")
	}
	v := min + n.Int64()

	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[:]), time.Now().Add(validity), nil
}

// Expired compares against the wall clock at check time, not generation
// time: a code can expire between being issued and being used.
func Expired(expiresAt time.Time) bool {
	return time.Now().After(expiresAt)
}
