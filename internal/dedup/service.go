package dedup

import (
	"context"
	"fmt"
)

// DirectoryStore exposes the existence checks the deduplication service runs
// across the pending and approved identity stores. Absence is reported as
// false, never as an error; only infrastructure failures surface as errors.
type DirectoryStore interface {
	ApplicantEmailExists(ctx context.Context, email string) (bool, error)
	ResidentEmailExists(ctx context.Context, email string) (bool, error)

	ApplicantNameExists(ctx context.Context, key NameKey) (bool, error)
	ResidentNameExists(ctx context.Context, key NameKey) (bool, error)
	FamilyMemberNameExists(ctx context.Context, key NameKey) (bool, error)
}

// Service decides whether a candidate identity already exists somewhere in
// the system. It never mutates state.
type Service struct {
	store DirectoryStore
}

func NewService(store DirectoryStore) *Service {
	return &Service{store: store}
}

// Check runs the duplicate checks in precedence order: email against pending
// applicants, email against approved residents, then the name policy against
// applicants, residents, and residents' family members. The first match wins.
func (s *Service) Check(ctx context.Context, candidate Candidate) (Verdict, error) {
	if candidate.Email != "" {
		exists, err := s.store.ApplicantEmailExists(ctx, candidate.Email)
		if err != nil {
			return VerdictNoDuplicate, fmt.Errorf("failed to check applicant emails: %w", err)
		}
		if exists {
			return VerdictPendingDuplicateEmail, nil
		}

		exists, err = s.store.ResidentEmailExists(ctx, candidate.Email)
		if err != nil {
			return VerdictNoDuplicate, fmt.Errorf("failed to check resident emails: %w", err)
		}
		if exists {
			return VerdictApprovedDuplicateEmail, nil
		}
	}

	key := candidate.nameKey()

	exists, err := s.store.ApplicantNameExists(ctx, key)
	if err != nil {
		return VerdictNoDuplicate, fmt.Errorf("failed to check applicant names: %w", err)
	}
	if exists {
		return VerdictPendingDuplicateName, nil
	}

	exists, err = s.store.ResidentNameExists(ctx, key)
	if err != nil {
		return VerdictNoDuplicate, fmt.Errorf("failed to check resident names: %w", err)
	}
	if exists {
		return VerdictApprovedDuplicateName, nil
	}

	exists, err = s.store.FamilyMemberNameExists(ctx, key)
	if err != nil {
		return VerdictNoDuplicate, fmt.Errorf("failed to check family member names: %w", err)
	}
	if exists {
		return VerdictDependentDuplicateName, nil
	}

	return VerdictNoDuplicate, nil
}
