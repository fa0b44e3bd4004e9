package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/database"
)

// Repository persists pending registrations in Postgres.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateApplicantWithDependents writes the applicant and every dependent in
// one transaction. A failure on any row rolls back all of them, so an
// applicant row can never exist with partial dependents.
func (r *Repository) CreateApplicantWithDependents(ctx context.Context, applicant *Applicant, dependents []*Dependent) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		dbApplicant := mapApplicantToDB(applicant)
		if _, err := tx.NewInsert().Model(dbApplicant).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert applicant: %w", err)
		}

		if len(dependents) == 0 {
			return nil
		}

		dbDependents := make([]*database.Dependent, 0, len(dependents))
		for _, dep := range dependents {
			dbDependents = append(dbDependents, &database.Dependent{
				ID:            dep.ID,
				ApplicantID:   dep.ApplicantID,
				FirstName:     dep.FirstName,
				LastName:      dep.LastName,
				MiddleInitial: dep.MiddleInitial,
				Relationship:  dep.Relationship,
				DateOfBirth:   dep.DateOfBirth,
			})
		}

		if _, err := tx.NewInsert().Model(&dbDependents).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert dependents: %w", err)
		}

		return nil
	})
}

// GetPendingByEmail retrieves a pending applicant by email (case-insensitive)
func (r *Repository) GetPendingByEmail(ctx context.Context, email string) (*Applicant, error) {
	dbApplicant := new(database.Applicant)
	err := r.db.NewSelect().
		Model(dbApplicant).
		Where("LOWER(email) = LOWER(?)", email).
		Where("status = ?", database.ApplicantStatusPending).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicantNotFound
		}
		return nil, fmt.Errorf("failed to get applicant by email: %w", err)
	}

	return mapDBApplicantToModel(dbApplicant), nil
}

// MarkEmailVerified flips the email_verified flag for a pending applicant.
func (r *Repository) MarkEmailVerified(ctx context.Context, email string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Applicant)(nil)).
		Set("email_verified = ?", true).
		Set("updated_at = NOW()").
		Where("LOWER(email) = LOWER(?)", email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrApplicantNotFound
	}

	return nil
}

func mapApplicantToDB(a *Applicant) *database.Applicant {
	return &database.Applicant{
		ID:              a.ID,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		MiddleInitial:   a.MiddleInitial,
		DateOfBirth:     a.DateOfBirth,
		Phone:           a.Phone,
		Address:         a.Address,
		AreaID:          a.AreaID,
		SubAreaID:       a.SubAreaID,
		Status:          database.ApplicantStatus(a.Status),
		RejectionReason: a.RejectionReason,
		EmailVerified:   a.EmailVerified,
		CreatedAt:       a.CreatedAt,
	}
}

func mapDBApplicantToModel(dba *database.Applicant) *Applicant {
	return &Applicant{
		ID:              dba.ID,
		Email:           dba.Email,
		PasswordHash:    dba.PasswordHash,
		FirstName:       dba.FirstName,
		LastName:        dba.LastName,
		MiddleInitial:   dba.MiddleInitial,
		DateOfBirth:     dba.DateOfBirth,
		Phone:           dba.Phone,
		Address:         dba.Address,
		AreaID:          dba.AreaID,
		SubAreaID:       dba.SubAreaID,
		Status:          Status(dba.Status),
		RejectionReason: dba.RejectionReason,
		EmailVerified:   dba.EmailVerified,
		CreatedAt:       dba.CreatedAt,
	}
}
