package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
)

// otpMin and otpSpan bound generated codes to six digits (100000..999999).
const (
	otpMin  = 100000
	otpSpan = 900000
)

// GenerateOTP returns a random six digit code from a cryptographic source.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// ValidOTPFormat reports whether s is exactly six ASCII digits.
func ValidOTPFormat(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MatchOTP compares a submitted code against the stored hash in constant time.
func MatchOTP(storedHash, code string) bool {
	if storedHash == "" {
		return false
	}
	got := HashToken(code)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(got)) == 1
}
