package verification

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCodeNotFound    = errors.New("no verification code found")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrCodeAlreadyUsed = errors.New("verification code already used")
)

// Purpose distinguishes what a code proves. A code issued for one purpose
// can never be consumed for another.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration-verification"
	PurposePasswordReset Purpose = "password-reset"
)

const codeDigits = 6

// Code is a single-use numeric verification code bound to an email address.
type Code struct {
	ID        uuid.UUID
	Email     string
	Code      string
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsUsed reports whether the code has been consumed.
func (c *Code) IsUsed() bool {
	return c.UsedAt != nil
}

// IsExpired reports whether the code's window has passed at the given instant.
func (c *Code) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// generateCode produces a uniformly random zero-padded numeric code.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
