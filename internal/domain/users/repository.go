package users

import "context"

type Repository interface {
	// Create devuelve apperr.ErrConflict si el email ya existe.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	// GetByEmail espera el email ya normalizado.
	GetByEmail(ctx context.Context, email string) (User, error)
	// List ordena por created_at ASC.
	List(ctx context.Context) ([]User, error)
	// Update devuelve apperr.ErrConflict si el email nuevo pertenece a otro usuario.
	Update(ctx context.Context, u User) error
}
