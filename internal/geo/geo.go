package geo

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAreaNotFound    = errors.New("area not found")
	ErrSubAreaNotFound = errors.New("sub-area not found")
)

// Area is a barangay zone grouping several puroks.
type Area struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SubArea is a purok within an area. HealthWorkerID is nil while no health
// worker is assigned.
type SubArea struct {
	ID             uuid.UUID  `json:"id"`
	AreaID         uuid.UUID  `json:"area_id"`
	Name           string     `json:"name"`
	HealthWorkerID *uuid.UUID `json:"-"`
}

// HealthWorker reviews applicants from their assigned sub-areas.
type HealthWorker struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
