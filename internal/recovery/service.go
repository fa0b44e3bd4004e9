package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/password"
	"github.com/ebotikaph/ebotika-api/internal/resident"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

var (
	// ErrResetNotAuthorized is returned when a password update is attempted
	// without a prior successful OTP verification.
	ErrResetNotAuthorized = errors.New("password reset not authorized")

	// ErrPasswordTooShort is returned when the replacement password does not
	// meet the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// ResidentStore looks up and updates approved resident accounts.
type ResidentStore interface {
	GetByEmail(ctx context.Context, email string) (*resident.Resident, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Codes issues and consumes one-time reset codes.
type Codes interface {
	Issue(ctx context.Context, email string, purpose verification.Purpose, window time.Duration) (string, error)
	Consume(ctx context.Context, email string, purpose verification.Purpose, candidate string) error
}

// SessionStore tracks which emails have passed OTP verification and may
// set a new password. Entries expire on their own.
type SessionStore interface {
	Authorize(ctx context.Context, email string, ttl time.Duration) error
	IsAuthorized(ctx context.Context, email string) (bool, error)
	Clear(ctx context.Context, email string) error
}

// Notifier delivers the reset OTP. Best-effort: a failure is logged, never
// surfaced to the caller.
type Notifier interface {
	SendResetOTP(ctx context.Context, toEmail, name, code string) error
}

// Service implements the three-step password recovery flow: request an OTP,
// verify it, then set a new password.
type Service struct {
	residents  ResidentStore
	codes      Codes
	sessions   SessionStore
	notifier   Notifier
	logger     *logging.Logger
	otpWindow  time.Duration
	sessionTTL time.Duration
}

func NewService(
	residents ResidentStore,
	codes Codes,
	sessions SessionStore,
	notifier Notifier,
	logger *logging.Logger,
	otpWindow time.Duration,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		residents:  residents,
		codes:      codes,
		sessions:   sessions,
		notifier:   notifier,
		logger:     logger,
		otpWindow:  otpWindow,
		sessionTTL: sessionTTL,
	}
}

// RequestReset issues a reset OTP and emails it to the account holder.
// Always returns nil so the caller cannot tell registered emails from
// unknown ones.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	res, err := s.residents.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal if the account exists
		if errors.Is(err, resident.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to look up resident for reset", "error", err)
		return nil
	}

	code, err := s.codes.Issue(ctx, res.Email, verification.PurposePasswordReset, s.otpWindow)
	if err != nil {
		s.logger.Warn("failed to issue reset code", "email", res.Email, "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.notifier.SendResetOTP(emailCtx, res.Email, res.FirstName, code); err != nil {
			s.logger.Warn("failed to send reset code", "email", res.Email, "error", err)
		}
	}()

	return nil
}

// VerifyOTP consumes the reset code and, on success, authorizes the email
// for a password update until the session expires.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)

	if err := s.codes.Consume(ctx, email, verification.PurposePasswordReset, code); err != nil {
		return err
	}

	if err := s.sessions.Authorize(ctx, email, s.sessionTTL); err != nil {
		return fmt.Errorf("failed to authorize password reset: %w", err)
	}

	return nil
}

// UpdatePassword replaces the resident's password. The reset authorization
// is cleared whether the update succeeds or fails, so a single OTP
// verification permits at most one attempt.
func (s *Service) UpdatePassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(email)

	authorized, err := s.sessions.IsAuthorized(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check reset authorization: %w", err)
	}
	if !authorized {
		return ErrResetNotAuthorized
	}

	defer func() {
		if err := s.sessions.Clear(context.Background(), email); err != nil {
			s.logger.Warn("failed to clear reset authorization", "email", email, "error", err)
		}
	}()

	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	res, err := s.residents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, resident.ErrNotFound) {
			return ErrResetNotAuthorized
		}
		return fmt.Errorf("failed to look up resident: %w", err)
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.residents.UpdatePassword(ctx, res.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
