package dedup

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/database"
)

// Repository implements DirectoryStore over Postgres. The name-matching
// policy mirrors NameKey.Matches in SQL so both agree on what a duplicate is.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ApplicantEmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Applicant)(nil)).
		Where("LOWER(email) = LOWER(?)", email).
		Where("status = ?", database.ApplicantStatusPending).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check applicant emails: %w", err)
	}

	return exists, nil
}

func (r *Repository) ResidentEmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Resident)(nil)).
		Where("LOWER(email) = LOWER(?)", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check resident emails: %w", err)
	}

	return exists, nil
}

func (r *Repository) ApplicantNameExists(ctx context.Context, key NameKey) (bool, error) {
	q := r.db.NewSelect().
		Model((*database.Applicant)(nil)).
		Where("status = ?", database.ApplicantStatusPending)

	exists, err := nameMatchQuery(q, key).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check applicant names: %w", err)
	}

	return exists, nil
}

func (r *Repository) ResidentNameExists(ctx context.Context, key NameKey) (bool, error) {
	q := r.db.NewSelect().
		Model((*database.Resident)(nil))

	exists, err := nameMatchQuery(q, key).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check resident names: %w", err)
	}

	return exists, nil
}

func (r *Repository) FamilyMemberNameExists(ctx context.Context, key NameKey) (bool, error) {
	q := r.db.NewSelect().
		Model((*database.FamilyMember)(nil))

	exists, err := nameMatchQuery(q, key).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check family member names: %w", err)
	}

	return exists, nil
}

// nameMatchQuery appends the duplicate-name policy to a select: exact
// case-insensitive first and last name, a missing middle initial on either
// side matching anything, and an exact date of birth when the candidate
// supplies one.
func nameMatchQuery(q *bun.SelectQuery, key NameKey) *bun.SelectQuery {
	q = q.
		Where("LOWER(first_name) = LOWER(?)", key.FirstName).
		Where("LOWER(last_name) = LOWER(?)", key.LastName)

	if key.MiddleInitial != "" {
		q = q.Where(
			"(middle_initial IS NULL OR middle_initial = '' OR LOWER(middle_initial) = LOWER(?))",
			key.MiddleInitial,
		)
	}

	if key.DateOfBirth != nil {
		q = q.Where("date_of_birth::date = ?::date", *key.DateOfBirth)
	}

	return q
}
