package users

import (
	"context"

	"pet-care-api/internal/domain/pets"
)

// OwnerDirectory expone a pets el resumen público del dueño.
type OwnerDirectory struct {
	repo Repository
}

func NewOwnerDirectory(repo Repository) *OwnerDirectory {
	return &OwnerDirectory{repo: repo}
}

func (d *OwnerDirectory) OwnerSummary(ctx context.Context, userID string) (pets.OwnerSummary, error) {
	u, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return pets.OwnerSummary{}, err
	}
	return pets.OwnerSummary{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}
