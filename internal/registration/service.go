package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/dedup"
	"github.com/ebotikaph/ebotika-api/internal/geo"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/password"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

// Store persists applicants and dependents. CreateApplicantWithDependents
// must write all rows in one transaction: either every row lands or none.
type Store interface {
	CreateApplicantWithDependents(ctx context.Context, applicant *Applicant, dependents []*Dependent) error
	GetPendingByEmail(ctx context.Context, email string) (*Applicant, error)
	MarkEmailVerified(ctx context.Context, email string) error
}

// ErrApplicantNotFound is returned by Store lookups when no pending
// applicant matches.
var ErrApplicantNotFound = errors.New("applicant not found")

// Deduper decides whether a candidate identity already exists.
type Deduper interface {
	Check(ctx context.Context, candidate dedup.Candidate) (dedup.Verdict, error)
}

// AreaRouter resolves sub-areas and their assigned health workers.
type AreaRouter interface {
	ResolveSubArea(ctx context.Context, subAreaID uuid.UUID) (*geo.SubArea, error)
	RouteApprover(ctx context.Context, subAreaID uuid.UUID) (*geo.HealthWorker, bool, error)
}

// Codes issues and consumes verification codes.
type Codes interface {
	Issue(ctx context.Context, email string, purpose verification.Purpose, window time.Duration) (string, error)
	Consume(ctx context.Context, email string, purpose verification.Purpose, candidate string) error
}

// Notifier delivers intake notifications. Both sends are best-effort: a
// failure is logged and never voids the committed registration.
type Notifier interface {
	SendVerificationCode(ctx context.Context, toEmail, name, code string) error
	SendApprovalRequest(ctx context.Context, workerEmail, workerName, applicantName, subAreaName string) error
}

// Service orchestrates the registration intake pipeline:
// validate -> deduplicate -> resolve area -> persist -> notify -> issue code.
type Service struct {
	store      Store
	deduper    Deduper
	router     AreaRouter
	codes      Codes
	notifier   Notifier
	logger     *logging.Logger
	codeWindow time.Duration
	now        func() time.Time
}

func NewService(
	store Store,
	deduper Deduper,
	router AreaRouter,
	codes Codes,
	notifier Notifier,
	logger *logging.Logger,
	codeWindow time.Duration,
) *Service {
	return &Service{
		store:      store,
		deduper:    deduper,
		router:     router,
		codes:      codes,
		notifier:   notifier,
		logger:     logger,
		codeWindow: codeWindow,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit runs the whole intake for one form. On any failure before the
// persistence step nothing is written; after it, notification and code
// delivery failures leave the pending registration intact.
func (s *Service) Submit(ctx context.Context, form *Form) (*Applicant, error) {
	now := s.now()

	if verr := form.Validate(now); verr != nil {
		return nil, verr
	}

	dob, _ := parseBirthDate(form.DateOfBirth, now)

	// Duplicate check for the primary applicant: email first, then name.
	verdict, err := s.deduper.Check(ctx, dedup.Candidate{
		Email:         form.Email,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		MiddleInitial: form.MiddleInitial,
		DateOfBirth:   &dob,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if verdict.IsDuplicate() {
		return nil, &DuplicateError{Verdict: verdict}
	}

	dependents, err := s.checkDependents(ctx, form, now)
	if err != nil {
		return nil, err
	}

	subAreaID, err := uuid.Parse(form.SubAreaID)
	if err != nil {
		return nil, ErrInvalidSubArea
	}

	subArea, err := s.router.ResolveSubArea(ctx, subAreaID)
	if err != nil {
		if errors.Is(err, geo.ErrSubAreaNotFound) {
			return nil, ErrInvalidSubArea
		}
		return nil, fmt.Errorf("failed to resolve sub-area: %w", err)
	}

	passwordHash, err := password.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	applicant := &Applicant{
		ID:            uuid.New(),
		Email:         strings.TrimSpace(form.Email),
		PasswordHash:  passwordHash,
		FirstName:     strings.TrimSpace(form.FirstName),
		LastName:      strings.TrimSpace(form.LastName),
		MiddleInitial: optional(form.MiddleInitial),
		DateOfBirth:   dob,
		Phone:         strings.TrimSpace(form.Phone),
		Address:       strings.TrimSpace(form.Address),
		AreaID:        subArea.AreaID,
		SubAreaID:     subArea.ID,
		Status:        StatusPending,
		CreatedAt:     now,
	}
	for _, dep := range dependents {
		dep.ApplicantID = applicant.ID
	}

	if err := s.store.CreateApplicantWithDependents(ctx, applicant, dependents); err != nil {
		return nil, fmt.Errorf("failed to persist registration: %w", err)
	}

	// Persistence is authoritative from here on. Notification and code
	// delivery are best-effort.
	worker, assigned, err := s.router.RouteApprover(ctx, subArea.ID)
	if err != nil {
		s.logger.Warn("failed to route approver", "sub_area_id", subArea.ID, "error", err)
	} else if assigned {
		go func() {
			emailCtx := context.Background()
			if err := s.notifier.SendApprovalRequest(emailCtx, worker.Email, worker.Name, applicant.FullName(), subArea.Name); err != nil {
				s.logger.Warn("failed to send approval request", "email", worker.Email, "error", err)
			}
		}()
	} else {
		s.logger.Info("no health worker assigned, notification skipped", "sub_area_id", subArea.ID)
	}

	code, err := s.codes.Issue(ctx, applicant.Email, verification.PurposeRegistration, s.codeWindow)
	if err != nil {
		// The applicant can request a resend; the registration stands.
		s.logger.Warn("failed to issue verification code", "email", applicant.Email, "error", err)
	} else {
		go func() {
			emailCtx := context.Background()
			if err := s.notifier.SendVerificationCode(emailCtx, applicant.Email, applicant.FirstName, code); err != nil {
				s.logger.Warn("failed to send verification code", "email", applicant.Email, "error", err)
			}
		}()
	}

	return applicant, nil
}

// checkDependents drops all-empty blocks, runs the name-based duplicate
// check on the rest, and builds the dependent rows.
func (s *Service) checkDependents(ctx context.Context, form *Form, now time.Time) ([]*Dependent, error) {
	dependents := make([]*Dependent, 0, len(form.Dependents))

	for _, block := range form.Dependents {
		if block.IsEmpty() {
			continue
		}

		dob, _ := parseBirthDate(block.DateOfBirth, now)

		verdict, err := s.deduper.Check(ctx, dedup.Candidate{
			FirstName:     block.FirstName,
			LastName:      block.LastName,
			MiddleInitial: block.MiddleInitial,
			DateOfBirth:   &dob,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check dependent for duplicates: %w", err)
		}
		if verdict.IsDuplicate() {
			return nil, &DuplicateError{
				Verdict: verdict,
				Name:    strings.TrimSpace(block.FirstName) + " " + strings.TrimSpace(block.LastName),
			}
		}

		dependents = append(dependents, &Dependent{
			ID:            uuid.New(),
			FirstName:     strings.TrimSpace(block.FirstName),
			LastName:      strings.TrimSpace(block.LastName),
			MiddleInitial: optional(block.MiddleInitial),
			Relationship:  strings.TrimSpace(block.Relationship),
			DateOfBirth:   dob,
		})
	}

	return dependents, nil
}

// VerifyEmail consumes a registration code and marks the pending applicant's
// email as verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	if err := s.codes.Consume(ctx, email, verification.PurposeRegistration, code); err != nil {
		return err
	}

	if err := s.store.MarkEmailVerified(ctx, email); err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return nil
}

// ResendCode re-issues and re-sends a registration code for a pending,
// unverified applicant. Always returns nil to prevent email enumeration.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	applicant, err := s.store.GetPendingByEmail(ctx, email)
	if err != nil {
		// Don't reveal if the applicant exists
		if errors.Is(err, ErrApplicantNotFound) {
			return nil
		}
		s.logger.Warn("failed to get applicant for resend", "error", err)
		return nil
	}

	if applicant.EmailVerified {
		// Don't reveal that the email is already verified
		return nil
	}

	code, err := s.codes.Issue(ctx, applicant.Email, verification.PurposeRegistration, s.codeWindow)
	if err != nil {
		s.logger.Warn("failed to issue verification code", "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.notifier.SendVerificationCode(emailCtx, applicant.Email, applicant.FirstName, code); err != nil {
			s.logger.Warn("failed to resend verification code", "email", applicant.Email, "error", err)
		}
	}()

	return nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
