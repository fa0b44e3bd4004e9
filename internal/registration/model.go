package registration

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a pending registration.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Applicant is a resident self-registration awaiting health-worker review.
type Applicant struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	MiddleInitial   *string    `json:"middle_initial,omitempty"`
	DateOfBirth     time.Time  `json:"date_of_birth"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	AreaID          uuid.UUID  `json:"area_id"`
	SubAreaID       uuid.UUID  `json:"sub_area_id"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	EmailVerified   bool       `json:"email_verified"`
	CreatedAt       time.Time  `json:"created_at"`
}

// FullName renders the applicant's display name.
func (a *Applicant) FullName() string {
	if a.MiddleInitial != nil && *a.MiddleInitial != "" {
		return a.FirstName + " " + *a.MiddleInitial + ". " + a.LastName
	}
	return a.FirstName + " " + a.LastName
}

// Dependent is a family member submitted alongside an applicant. Dependents
// never outlive their applicant.
type Dependent struct {
	ID            uuid.UUID `json:"id"`
	ApplicantID   uuid.UUID `json:"applicant_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	MiddleInitial *string   `json:"middle_initial,omitempty"`
	Relationship  string    `json:"relationship"`
	DateOfBirth   time.Time `json:"date_of_birth"`
}
