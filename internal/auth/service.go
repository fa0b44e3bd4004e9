package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/password"
	"github.com/ebotikaph/ebotika-api/internal/resident"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified, please check your inbox")
)

// ResidentStore looks up approved resident accounts.
type ResidentStore interface {
	GetByEmail(ctx context.Context, email string) (*resident.Resident, error)
	GetByID(ctx context.Context, id uuid.UUID) (*resident.Resident, error)
}

// Session is an authenticated login: the signed-in resident plus their
// access token.
type Session struct {
	Resident    *resident.Resident
	AccessToken string
	ExpiresAt   time.Time
}

// Service handles resident sign-in and identity lookups for protected routes.
type Service struct {
	residents      ResidentStore
	tokens         TokenService
	accessTokenTTL time.Duration
}

func NewService(residents ResidentStore, tokens TokenService, accessTokenTTL time.Duration) *Service {
	return &Service{
		residents:      residents,
		tokens:         tokens,
		accessTokenTTL: accessTokenTTL,
	}
}

// Login authenticates a resident and issues an access token.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*Session, error) {
	if email == "" || plainPassword == "" {
		return nil, ErrInvalidCredentials
	}

	res, err := s.residents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, resident.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}

	if !password.Verify(res.PasswordHash, plainPassword) {
		return nil, ErrInvalidCredentials
	}

	if !res.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.tokens.CreateToken(res.ID, res.Email, s.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &Session{
		Resident:    res,
		AccessToken: token,
		ExpiresAt:   time.Now().UTC().Add(s.accessTokenTTL),
	}, nil
}

// Me returns the resident for an authenticated request.
func (s *Service) Me(ctx context.Context, residentID uuid.UUID) (*resident.Resident, error) {
	res, err := s.residents.GetByID(ctx, residentID)
	if err != nil {
		if errors.Is(err, resident.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}
	return res, nil
}
