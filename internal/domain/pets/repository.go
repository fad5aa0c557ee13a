package pets

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	// GetByID devuelve la fila aunque esté soft-deleted (DeletedAt != nil);
	// el servicio decide si la excluye.
	GetByID(ctx context.Context, id string) (Pet, error)
	// List nunca incluye soft-deleted. Orden: created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type ListFilter struct {
	// Vacío = todas las mascotas (scope all).
	OwnerUserID string
}
