package dedup

import (
	"strings"
	"time"
)

// Verdict is the outcome of a duplicate-identity check.
type Verdict string

const (
	VerdictNoDuplicate Verdict = "no_duplicate"

	VerdictPendingDuplicateEmail  Verdict = "pending_duplicate_email"
	VerdictApprovedDuplicateEmail Verdict = "approved_duplicate_email"

	VerdictPendingDuplicateName   Verdict = "pending_duplicate_name"
	VerdictApprovedDuplicateName  Verdict = "approved_duplicate_name"
	VerdictDependentDuplicateName Verdict = "dependent_duplicate_name"
)

// IsDuplicate reports whether the verdict blocks registration.
func (v Verdict) IsDuplicate() bool {
	return v != VerdictNoDuplicate
}

// Message returns the user-facing explanation for the verdict.
func (v Verdict) Message() string {
	switch v {
	case VerdictPendingDuplicateEmail:
		return "an application with this email is already awaiting review"
	case VerdictApprovedDuplicateEmail:
		return "an account with this email already exists"
	case VerdictPendingDuplicateName:
		return "a person with this name is already awaiting review"
	case VerdictApprovedDuplicateName:
		return "a person with this name is already registered"
	case VerdictDependentDuplicateName:
		return "a person with this name is already registered as a family member"
	default:
		return ""
	}
}

// Candidate is the identity being checked for duplicates. Email may be empty
// for dependents, and DateOfBirth may be nil when unknown.
type Candidate struct {
	Email         string
	FirstName     string
	LastName      string
	MiddleInitial string
	DateOfBirth   *time.Time
}

// NameKey is the name triple the matching policy compares.
type NameKey struct {
	FirstName     string
	LastName      string
	MiddleInitial string
	DateOfBirth   *time.Time
}

// Matches applies the duplicate-name policy: first and last names compare
// case-insensitively, a missing middle initial on either side matches any
// middle initial, and when both sides carry a date of birth it must be the
// same calendar day. The middle-initial leniency catches the common case of
// a person omitting their initial on a second attempt.
func (k NameKey) Matches(other NameKey) bool {
	if !strings.EqualFold(k.FirstName, other.FirstName) {
		return false
	}
	if !strings.EqualFold(k.LastName, other.LastName) {
		return false
	}

	if k.MiddleInitial != "" && other.MiddleInitial != "" &&
		!strings.EqualFold(k.MiddleInitial, other.MiddleInitial) {
		return false
	}

	if k.DateOfBirth != nil && other.DateOfBirth != nil {
		ky, km, kd := k.DateOfBirth.Date()
		oy, om, od := other.DateOfBirth.Date()
		if ky != oy || km != om || kd != od {
			return false
		}
	}

	return true
}

// nameKey extracts the comparable name triple from a candidate.
func (c Candidate) nameKey() NameKey {
	return NameKey{
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		MiddleInitial: c.MiddleInitial,
		DateOfBirth:   c.DateOfBirth,
	}
}
