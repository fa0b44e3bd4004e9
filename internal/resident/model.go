package resident

import (
	"time"

	"github.com/google/uuid"
)

// Resident is an approved identity with a usable account.
type Resident struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never expose password hash in JSON
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	MiddleInitial *string    `json:"middle_initial,omitempty"`
	DateOfBirth   time.Time  `json:"date_of_birth"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	AreaID        uuid.UUID  `json:"area_id"`
	SubAreaID     uuid.UUID  `json:"sub_area_id"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FullName renders the resident's display name.
func (r *Resident) FullName() string {
	if r.MiddleInitial != nil && *r.MiddleInitial != "" {
		return r.FirstName + " " + *r.MiddleInitial + ". " + r.LastName
	}
	return r.FirstName + " " + r.LastName
}
