package verification

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence operations the code lifecycle needs.
// The Postgres implementation is Repository; tests use an in-memory fake.
type Store interface {
	// DeleteActive removes all unused codes for (email, purpose).
	DeleteActive(ctx context.Context, email string, purpose Purpose) error
	// Insert persists a newly issued code.
	Insert(ctx context.Context, code *Code) error
	// Latest returns the most recently issued code for (email, purpose),
	// used or not, or ErrCodeNotFound.
	Latest(ctx context.Context, email string, purpose Purpose) (*Code, error)
	// MarkUsed sets used_at on an unused code. Returns false when the code
	// was already consumed, so a concurrent second consumer loses cleanly.
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error)
}

// Service issues and consumes single-use verification codes.
// All expiry math runs on the injected clock in UTC, so the issuing and
// consuming comparisons can never disagree on calendar or zone.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh code for (email, purpose) valid for the given
// window, invalidating any previously active code for the pair. The caller
// is responsible for delivering the returned code.
func (s *Service) Issue(ctx context.Context, email string, purpose Purpose, window time.Duration) (string, error) {
	value, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteActive(ctx, email, purpose); err != nil {
		return "", fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	issuedAt := s.now()
	code := &Code{
		ID:        uuid.New(),
		Email:     email,
		Code:      value,
		Purpose:   purpose,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(window),
	}

	if err := s.store.Insert(ctx, code); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return value, nil
}

// Consume validates the candidate against the most recent code for
// (email, purpose) and marks it used. Exactly one of two concurrent calls
// with the correct code succeeds; the other gets ErrCodeAlreadyUsed.
func (s *Service) Consume(ctx context.Context, email string, purpose Purpose, candidate string) error {
	code, err := s.store.Latest(ctx, email, purpose)
	if err != nil {
		return err
	}

	if code.IsUsed() {
		return ErrCodeAlreadyUsed
	}

	now := s.now()
	if code.IsExpired(now) {
		return ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(code.Code), []byte(candidate)) != 1 {
		return ErrCodeMismatch
	}

	marked, err := s.store.MarkUsed(ctx, code.ID, now)
	if err != nil {
		return fmt.Errorf("failed to mark code as used: %w", err)
	}
	if !marked {
		// A concurrent consumer won the update.
		return ErrCodeAlreadyUsed
	}

	return nil
}
