package vaccines

import "context"

type Repository interface {
	Create(ctx context.Context, v Vaccine) error
	// GetByID trae la vacuna con su mascota (aunque esté soft-deleted).
	GetByID(ctx context.Context, id string) (Vaccine, error)
	Update(ctx context.Context, v Vaccine) error
	Delete(ctx context.Context, id string) error
	// List nunca incluye vacunas de mascotas soft-deleted.
	List(ctx context.Context, filter ListFilter) ([]Vaccine, error)
}

type Order string

const (
	OrderCreatedDesc Order = "created_desc"
	OrderAppliedDesc Order = "applied_desc"
)

type ListFilter struct {
	PetID       string
	OwnerUserID string // dueño de la mascota; vacío = sin filtro (scope all)
	Order       Order  // vacío = OrderCreatedDesc
}
