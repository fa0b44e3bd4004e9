package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ApplicantStatus is the lifecycle status of a pending registration.
type ApplicantStatus string

const (
	ApplicantStatusPending  ApplicantStatus = "pending"
	ApplicantStatusApproved ApplicantStatus = "approved"
	ApplicantStatusRejected ApplicantStatus = "rejected"
)

// Applicant is a resident self-registration awaiting health-worker review.
type Applicant struct {
	bun.BaseModel `bun:"table:applicants"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email           string          `bun:"email,notnull,unique"`
	PasswordHash    string          `bun:"password_hash,notnull"`
	FirstName       string          `bun:"first_name,notnull"`
	LastName        string          `bun:"last_name,notnull"`
	MiddleInitial   *string         `bun:"middle_initial"`
	DateOfBirth     time.Time       `bun:"date_of_birth,notnull"`
	Phone           string          `bun:"phone"`
	Address         string          `bun:"address"`
	AreaID          uuid.UUID       `bun:"area_id,notnull,type:uuid"`
	SubAreaID       uuid.UUID       `bun:"sub_area_id,notnull,type:uuid"`
	Status          ApplicantStatus `bun:"status,notnull,default:'pending'"`
	RejectionReason *string         `bun:"rejection_reason"`
	EmailVerified   bool            `bun:"email_verified,notnull,default:false"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Dependents []*Dependent `bun:"rel:has-many,join:id=applicant_id"`
}

// Dependent is a family member submitted alongside an Applicant.
// Rows are removed with their applicant (ON DELETE CASCADE).
type Dependent struct {
	bun.BaseModel `bun:"table:dependents"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ApplicantID   uuid.UUID `bun:"applicant_id,notnull,type:uuid"`
	FirstName     string    `bun:"first_name,notnull"`
	LastName      string    `bun:"last_name,notnull"`
	MiddleInitial *string   `bun:"middle_initial"`
	Relationship  string    `bun:"relationship,notnull"`
	DateOfBirth   time.Time `bun:"date_of_birth,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Resident is an approved identity. Approval migrates an applicant row here;
// that migration is owned by the review workflow, not this service.
type Resident struct {
	bun.BaseModel `bun:"table:residents"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	FirstName     string    `bun:"first_name,notnull"`
	LastName      string    `bun:"last_name,notnull"`
	MiddleInitial *string   `bun:"middle_initial"`
	DateOfBirth   time.Time `bun:"date_of_birth,notnull"`
	Phone         string    `bun:"phone"`
	Address       string    `bun:"address"`
	AreaID        uuid.UUID `bun:"area_id,notnull,type:uuid"`
	SubAreaID     uuid.UUID `bun:"sub_area_id,notnull,type:uuid"`
	EmailVerified bool      `bun:"email_verified,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// FamilyMember is a dependent of an approved resident. Read-only here; the
// deduplication checks search it for name collisions.
type FamilyMember struct {
	bun.BaseModel `bun:"table:family_members"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ResidentID    uuid.UUID `bun:"resident_id,notnull,type:uuid"`
	FirstName     string    `bun:"first_name,notnull"`
	LastName      string    `bun:"last_name,notnull"`
	MiddleInitial *string   `bun:"middle_initial"`
	Relationship  string    `bun:"relationship,notnull"`
	DateOfBirth   time.Time `bun:"date_of_birth,notnull"`
}

// VerificationCode is a short-lived single-use numeric code proving control of
// an email address. At most one unused, unexpired row exists per (email, purpose).
type VerificationCode struct {
	bun.BaseModel `bun:"table:verification_codes"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email     string     `bun:"email,notnull"`
	Code      string     `bun:"code,notnull"`
	Purpose   string     `bun:"purpose,notnull"`
	IssuedAt  time.Time  `bun:"issued_at,notnull"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	UsedAt    *time.Time `bun:"used_at"`
}

// Area is a barangay zone grouping several puroks (sub-areas).
type Area struct {
	bun.BaseModel `bun:"table:areas"`

	ID   uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name string    `bun:"name,notnull,unique"`
}

// SubArea is a purok within an area. At most one health worker is assigned
// to a sub-area at a time; the assignment may be empty.
type SubArea struct {
	bun.BaseModel `bun:"table:sub_areas"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	AreaID         uuid.UUID  `bun:"area_id,notnull,type:uuid"`
	Name           string     `bun:"name,notnull"`
	HealthWorkerID *uuid.UUID `bun:"health_worker_id,type:uuid"`

	Area         *Area         `bun:"rel:belongs-to,join:area_id=id"`
	HealthWorker *HealthWorker `bun:"rel:belongs-to,join:health_worker_id=id"`
}

// HealthWorker is a barangay health worker who reviews applicants from
// their assigned sub-areas.
type HealthWorker struct {
	bun.BaseModel `bun:"table:health_workers"`

	ID    uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name  string    `bun:"name,notnull"`
	Email string    `bun:"email,notnull,unique"`
}
