package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/database"
)

// Repository persists verification codes in Postgres.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// DeleteActive removes unused codes for (email, purpose). Correctness never
// depends on this deletion; Latest only ever returns the newest row.
func (r *Repository) DeleteActive(ctx context.Context, email string, purpose Purpose) error {
	_, err := r.db.NewDelete().
		Model((*database.VerificationCode)(nil)).
		Where("LOWER(email) = LOWER(?)", email).
		Where("purpose = ?", string(purpose)).
		Where("used_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete active codes: %w", err)
	}

	return nil
}

// Insert persists a newly issued code.
func (r *Repository) Insert(ctx context.Context, code *Code) error {
	dbCode := &database.VerificationCode{
		ID:        code.ID,
		Email:     code.Email,
		Code:      code.Code,
		Purpose:   string(code.Purpose),
		IssuedAt:  code.IssuedAt,
		ExpiresAt: code.ExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbCode).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert verification code: %w", err)
	}

	return nil
}

// Latest returns the most recently issued code for (email, purpose).
func (r *Repository) Latest(ctx context.Context, email string, purpose Purpose) (*Code, error) {
	dbCode := new(database.VerificationCode)
	err := r.db.NewSelect().
		Model(dbCode).
		Where("LOWER(email) = LOWER(?)", email).
		Where("purpose = ?", string(purpose)).
		Order("issued_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return mapDBCodeToModel(dbCode), nil
}

// MarkUsed transitions used_at from NULL exactly once. The used_at IS NULL
// guard makes the update first-writer-wins under concurrent consumption.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	result, err := r.db.NewUpdate().
		Model((*database.VerificationCode)(nil)).
		Set("used_at = ?", usedAt).
		Where("id = ?", id).
		Where("used_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark code as used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CleanupExpired removes codes past their window. Safe to run periodically;
// consumption checks expiry itself and never relies on this.
func (r *Repository) CleanupExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.NewDelete().
		Model((*database.VerificationCode)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired codes: %w", err)
	}

	return nil
}

// mapDBCodeToModel converts database model to domain model
func mapDBCodeToModel(dbc *database.VerificationCode) *Code {
	return &Code{
		ID:        dbc.ID,
		Email:     dbc.Email,
		Code:      dbc.Code,
		Purpose:   Purpose(dbc.Purpose),
		IssuedAt:  dbc.IssuedAt,
		ExpiresAt: dbc.ExpiresAt,
		UsedAt:    dbc.UsedAt,
	}
}
