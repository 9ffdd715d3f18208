package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// New returns a zero-padded numeric one-time passcode of the given length.
func New(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("otp length must be positive, got %d", length)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
