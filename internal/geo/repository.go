package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/database"
)

// Repository reads area reference data from Postgres.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAreas(ctx context.Context) ([]*Area, error) {
	var dbAreas []*database.Area
	err := r.db.NewSelect().
		Model(&dbAreas).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	areas := make([]*Area, 0, len(dbAreas))
	for _, a := range dbAreas {
		areas = append(areas, &Area{ID: a.ID, Name: a.Name})
	}

	return areas, nil
}

func (r *Repository) ListSubAreas(ctx context.Context, areaID uuid.UUID) ([]*SubArea, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Area)(nil)).
		Where("id = ?", areaID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check area: %w", err)
	}
	if !exists {
		return nil, ErrAreaNotFound
	}

	var dbSubAreas []*database.SubArea
	err = r.db.NewSelect().
		Model(&dbSubAreas).
		Where("area_id = ?", areaID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-areas: %w", err)
	}

	subAreas := make([]*SubArea, 0, len(dbSubAreas))
	for _, sa := range dbSubAreas {
		subAreas = append(subAreas, mapDBSubAreaToModel(sa))
	}

	return subAreas, nil
}

func (r *Repository) SubAreaByID(ctx context.Context, id uuid.UUID) (*SubArea, error) {
	dbSubArea := new(database.SubArea)
	err := r.db.NewSelect().
		Model(dbSubArea).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubAreaNotFound
		}
		return nil, fmt.Errorf("failed to get sub-area: %w", err)
	}

	return mapDBSubAreaToModel(dbSubArea), nil
}

func (r *Repository) HealthWorkerByID(ctx context.Context, id uuid.UUID) (*HealthWorker, error) {
	dbWorker := new(database.HealthWorker)
	err := r.db.NewSelect().
		Model(dbWorker).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get health worker: %w", err)
	}

	return &HealthWorker{ID: dbWorker.ID, Name: dbWorker.Name, Email: dbWorker.Email}, nil
}

func mapDBSubAreaToModel(dbsa *database.SubArea) *SubArea {
	return &SubArea{
		ID:             dbsa.ID,
		AreaID:         dbsa.AreaID,
		Name:           dbsa.Name,
		HealthWorkerID: dbsa.HealthWorkerID,
	}
}
