package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-care-api/internal/domain/users"
	"pet-care-api/internal/platform/apperr"
)

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string // email -> id (índice único)
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return apperr.ErrConflict
	}
	if _, taken := r.byEmail[u.Email]; taken {
		return apperr.ErrConflict
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return apperr.ErrConflict
	}

	delete(r.byEmail, cur.Email)
	u.CreatedAt = cur.CreatedAt
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}
