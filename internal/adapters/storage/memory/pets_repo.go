package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/platform/apperr"
)

// ErrNotFound es el sentinel compartido: los servicios lo reconocen con errors.Is.
var ErrNotFound = apperr.ErrNotFound

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return apperr.ErrConflict
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists || cur.IsDeleted() {
		return ErrNotFound
	}
	// owner, created_at y deleted_at no cambian por Update
	p.OwnerUserID = cur.OwnerUserID
	p.CreatedAt = cur.CreatedAt
	p.DeletedAt = cur.DeletedAt
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.IsDeleted() {
			continue
		}
		if f.OwnerUserID != "" && p.OwnerUserID != f.OwnerUserID {
			continue
		}
		out = append(out, p)
	}

	// created_at desc; id como desempate para orden estable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *petRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok || p.IsDeleted() {
		return ErrNotFound
	}
	p.DeletedAt = &at
	p.UpdatedAt = at
	r.byID[id] = p
	return nil
}
