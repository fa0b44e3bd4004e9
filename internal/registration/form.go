package registration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Form is the registration intake payload.
type Form struct {
	Email         string          `json:"email" validate:"required,email,max=254"`
	Password      string          `json:"password" validate:"required,min=8"`
	FirstName     string          `json:"first_name" validate:"required,min=2"`
	LastName      string          `json:"last_name" validate:"required,min=2"`
	MiddleInitial string          `json:"middle_initial" validate:"omitempty,max=2"`
	DateOfBirth   string          `json:"date_of_birth" validate:"required"`
	Phone         string          `json:"phone" validate:"omitempty,max=20"`
	Address       string          `json:"address" validate:"omitempty,max=255"`
	SubAreaID     string          `json:"sub_area_id" validate:"required,uuid"`
	Dependents    []DependentForm `json:"dependents"`
}

// DependentForm is one optional family-member block on the form. An
// all-empty block is silently dropped; a partially filled one is validated.
type DependentForm struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleInitial string `json:"middle_initial"`
	Relationship  string `json:"relationship"`
	DateOfBirth   string `json:"date_of_birth"`
}

// IsEmpty reports whether every field of the block is blank.
func (d DependentForm) IsEmpty() bool {
	return strings.TrimSpace(d.FirstName) == "" &&
		strings.TrimSpace(d.LastName) == "" &&
		strings.TrimSpace(d.MiddleInitial) == "" &&
		strings.TrimSpace(d.Relationship) == "" &&
		strings.TrimSpace(d.DateOfBirth) == ""
}

var validate = validator.New()

// fieldMessages translates validator tags into actionable reasons.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

// jsonFieldName maps the struct field back to its JSON name.
func jsonFieldName(field string) string {
	switch field {
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "MiddleInitial":
		return "middle_initial"
	case "DateOfBirth":
		return "date_of_birth"
	case "Phone":
		return "phone"
	case "Address":
		return "address"
	case "SubAreaID":
		return "sub_area_id"
	default:
		return strings.ToLower(field)
	}
}

// Validate checks the form and returns a ValidationError listing every
// invalid field, or nil. now anchors the age plausibility checks.
func (f *Form) Validate(now time.Time) *ValidationError {
	var fields []FieldError

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, FieldError{
					Field:  jsonFieldName(fe.Field()),
					Reason: fieldMessage(fe),
				})
			}
		} else {
			fields = append(fields, FieldError{Field: "form", Reason: "is invalid"})
		}
	}

	if f.DateOfBirth != "" {
		if _, reason := parseBirthDate(f.DateOfBirth, now); reason != "" {
			fields = append(fields, FieldError{Field: "date_of_birth", Reason: reason})
		}
	}

	for i, dep := range f.Dependents {
		if dep.IsEmpty() {
			continue
		}
		fields = append(fields, validateDependent(dep, i, now)...)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func validateDependent(dep DependentForm, index int, now time.Time) []FieldError {
	var fields []FieldError

	prefix := fmt.Sprintf("dependents[%d].", index)

	if len(strings.TrimSpace(dep.FirstName)) < 2 {
		fields = append(fields, FieldError{Field: prefix + "first_name", Reason: "must be at least 2 characters"})
	}
	if len(strings.TrimSpace(dep.LastName)) < 2 {
		fields = append(fields, FieldError{Field: prefix + "last_name", Reason: "must be at least 2 characters"})
	}
	if strings.TrimSpace(dep.Relationship) == "" {
		fields = append(fields, FieldError{Field: prefix + "relationship", Reason: "is required"})
	}
	if strings.TrimSpace(dep.DateOfBirth) == "" {
		fields = append(fields, FieldError{Field: prefix + "date_of_birth", Reason: "is required"})
	} else if _, reason := parseBirthDate(dep.DateOfBirth, now); reason != "" {
		fields = append(fields, FieldError{Field: prefix + "date_of_birth", Reason: reason})
	}

	return fields
}

// parseBirthDate parses a YYYY-MM-DD date and checks it falls in a plausible
// human age range. Returns the parsed date and an empty reason on success.
func parseBirthDate(value string, now time.Time) (time.Time, string) {
	dob, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, "must be a date in YYYY-MM-DD format"
	}

	if dob.After(now) {
		return time.Time{}, "must not be in the future"
	}
	if dob.Before(now.AddDate(-130, 0, 0)) {
		return time.Time{}, "is not a plausible birth date"
	}

	return dob, ""
}
