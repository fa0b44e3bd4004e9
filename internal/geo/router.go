package geo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store reads the static area reference data.
type Store interface {
	ListAreas(ctx context.Context) ([]*Area, error)
	ListSubAreas(ctx context.Context, areaID uuid.UUID) ([]*SubArea, error)
	SubAreaByID(ctx context.Context, id uuid.UUID) (*SubArea, error)
	HealthWorkerByID(ctx context.Context, id uuid.UUID) (*HealthWorker, error)
}

// Router resolves an applicant's sub-area to its area and, when one is
// assigned, the reviewing health worker.
type Router struct {
	store Store
}

func NewRouter(store Store) *Router {
	return &Router{store: store}
}

// ResolveSubArea looks up a sub-area. Returns ErrSubAreaNotFound when the
// selected id does not resolve.
func (r *Router) ResolveSubArea(ctx context.Context, subAreaID uuid.UUID) (*SubArea, error) {
	return r.store.SubAreaByID(ctx, subAreaID)
}

// RouteApprover returns the health worker assigned to a sub-area. An
// unassigned sub-area is a legitimate outcome, reported as ok=false, not
// an error: intake still succeeds and the applicant waits for assignment.
func (r *Router) RouteApprover(ctx context.Context, subAreaID uuid.UUID) (*HealthWorker, bool, error) {
	subArea, err := r.store.SubAreaByID(ctx, subAreaID)
	if err != nil {
		return nil, false, err
	}

	if subArea.HealthWorkerID == nil {
		return nil, false, nil
	}

	worker, err := r.store.HealthWorkerByID(ctx, *subArea.HealthWorkerID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load assigned health worker: %w", err)
	}

	return worker, true, nil
}
