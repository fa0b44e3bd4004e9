package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebotikaph/ebotika-api/internal/dedup"
)

var ErrInvalidSubArea = errors.New("selected sub-area does not exist")

// FieldError names a single invalid form field and why it was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every invalid field of a submission so the
// applicant can fix them all in one resubmission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DuplicateError reports that the submission collides with an existing
// identity. Name identifies which person collided when the duplicate is a
// dependent block rather than the primary applicant.
type DuplicateError struct {
	Verdict dedup.Verdict
	Name    string
}

func (e *DuplicateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Verdict.Message())
	}
	return e.Verdict.Message()
}
