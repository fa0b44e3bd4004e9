package resident

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/database"
)

var ErrNotFound = errors.New("resident not found")

// Repository handles approved-identity persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetByEmail retrieves a resident by email (case-insensitive)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Resident, error) {
	dbResident := new(database.Resident)
	err := r.db.NewSelect().
		Model(dbResident).
		Where("LOWER(email) = LOWER(?)", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident by email: %w", err)
	}

	return mapDBResidentToModel(dbResident), nil
}

// GetByID retrieves a resident by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Resident, error) {
	dbResident := new(database.Resident)
	err := r.db.NewSelect().
		Model(dbResident).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident by id: %w", err)
	}

	return mapDBResidentToModel(dbResident), nil
}

// UpdatePassword updates a resident's password hash
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Resident)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBResidentToModel converts database model to domain model
func mapDBResidentToModel(dbr *database.Resident) *Resident {
	return &Resident{
		ID:            dbr.ID,
		Email:         dbr.Email,
		PasswordHash:  dbr.PasswordHash,
		FirstName:     dbr.FirstName,
		LastName:      dbr.LastName,
		MiddleInitial: dbr.MiddleInitial,
		DateOfBirth:   dbr.DateOfBirth,
		Phone:         dbr.Phone,
		Address:       dbr.Address,
		AreaID:        dbr.AreaID,
		SubAreaID:     dbr.SubAreaID,
		EmailVerified: dbr.EmailVerified,
		CreatedAt:     dbr.CreatedAt,
		UpdatedAt:     dbr.UpdatedAt,
	}
}
