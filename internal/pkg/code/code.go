package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Width is the number of digits in a verification code.
const Width = 6

var limit = big.NewInt(1_000_000)

// NewNumeric returns a uniformly random 6-digit code from crypto/rand.
// Leading zeros are preserved.
func NewNumeric() (string, error) {
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", Width, n.Int64()), nil
}
