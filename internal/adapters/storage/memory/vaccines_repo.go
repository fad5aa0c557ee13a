package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/domain/vaccines"
	"pet-care-api/internal/platform/apperr"
)

// vaccineRepo resuelve el "join" con pets leyendo el repo de mascotas en cada lectura.
type vaccineRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccines.Vaccine
	pets pets.Repository
}

func NewVaccineRepo(petRepo pets.Repository) vaccines.Repository {
	return &vaccineRepo{
		byID: make(map[string]vaccines.Vaccine),
		pets: petRepo,
	}
}

func (r *vaccineRepo) Create(ctx context.Context, v vaccines.Vaccine) error {
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vaccine id required")
	}
	// FK: la mascota tiene que existir
	if _, err := r.pets.GetByID(ctx, v.PetID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[v.ID]; exists {
		return apperr.ErrConflict
	}
	v.Pet = pets.Pet{}
	r.byID[v.ID] = v
	return nil
}

func (r *vaccineRepo) GetByID(ctx context.Context, id string) (vaccines.Vaccine, error) {
	r.mu.RLock()
	v, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return vaccines.Vaccine{}, ErrNotFound
	}
	return r.join(ctx, v)
}

func (r *vaccineRepo) Update(ctx context.Context, v vaccines.Vaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[v.ID]
	if !ok {
		return ErrNotFound
	}
	v.PetID = cur.PetID
	v.CreatedAt = cur.CreatedAt
	v.Pet = pets.Pet{}
	r.byID[v.ID] = v
	return nil
}

func (r *vaccineRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *vaccineRepo) List(ctx context.Context, f vaccines.ListFilter) ([]vaccines.Vaccine, error) {
	r.mu.RLock()
	snapshot := make([]vaccines.Vaccine, 0, len(r.byID))
	for _, v := range r.byID {
		if f.PetID != "" && v.PetID != f.PetID {
			continue
		}
		snapshot = append(snapshot, v)
	}
	r.mu.RUnlock()

	out := make([]vaccines.Vaccine, 0, len(snapshot))
	for _, v := range snapshot {
		joined, err := r.join(ctx, v)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if joined.Pet.IsDeleted() {
			continue
		}
		if f.OwnerUserID != "" && joined.Pet.OwnerUserID != f.OwnerUserID {
			continue
		}
		out = append(out, joined)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.Order == vaccines.OrderAppliedDesc && !a.AppliedDate.Equal(b.AppliedDate) {
			return a.AppliedDate.After(b.AppliedDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (r *vaccineRepo) join(ctx context.Context, v vaccines.Vaccine) (vaccines.Vaccine, error) {
	p, err := r.pets.GetByID(ctx, v.PetID)
	if err != nil {
		return vaccines.Vaccine{}, err
	}
	v.Pet = p
	return v, nil
}
