package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/platform/apperr"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	ErrEmailTaken   = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
)

// PetLister lo implementa pets.Service (mascotas activas de un dueño).
type PetLister interface {
	ListOwnedBy(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
}

// SessionRevoker lo implementa sessions.Service. Se invalida todo token emitido
// antes de un cambio de rol o de estado.
type SessionRevoker interface {
	RevokeSubject(ctx context.Context, userID string) error
}

type Service struct {
	repo     Repository
	pets     PetLister
	sessions SessionRevoker
	now      func() time.Time
}

func NewService(repo Repository, petLister PetLister, revoker SessionRevoker) *Service {
	return &Service{
		repo:     repo,
		pets:     petLister,
		sessions: revoker,
		now:      time.Now,
	}
}

type ProfileInput struct {
	Name  *string
	Email *string
	Phone *string
}

// AdminUpdateInput: solo ADMIN. nil = no tocar.
type AdminUpdateInput struct {
	Role   *string
	Active *bool
}

func (s *Service) GetOwnProfile(ctx context.Context, caller access.Caller) (Profile, error) {
	u, err := s.get(ctx, caller.UserID)
	if err != nil {
		return Profile{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceUser, OwnerUserID: u.ID}, access.ActionRead); err != nil {
		return Profile{}, err
	}

	owned := []pets.Pet{}
	if s.pets != nil {
		owned, err = s.pets.ListOwnedBy(ctx, u.ID)
		if err != nil {
			return Profile{}, err
		}
	}
	return Profile{User: u, Pets: owned}, nil
}

func (s *Service) UpdateOwnProfile(ctx context.Context, caller access.Caller, in ProfileInput) (User, error) {
	u, err := s.get(ctx, caller.UserID)
	if err != nil {
		return User{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceUser, OwnerUserID: u.ID}, access.ActionWrite); err != nil {
		return User{}, err
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
		if u.Name == "" {
			return User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if err := ValidateEmail(email); err != nil {
			return User{}, err
		}
		if email != u.Email {
			other, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return User{}, ErrEmailTaken
			case err != nil && !errors.Is(err, apperr.ErrNotFound):
				return User{}, err
			}
		}
		u.Email = email
	}
	u.UpdatedAt = s.now()

	if err := s.update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser: existencia primero (404), después ADMIN o el propio usuario (403).
func (s *Service) GetUser(ctx context.Context, caller access.Caller, id string) (User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceUser, OwnerUserID: u.ID}, access.ActionRead); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, caller access.Caller) ([]User, error) {
	if err := access.RequireAll(caller, access.ResourceUser, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// UpdateUser cambia rol y/o estado. Si algo cambió, las sesiones vigentes del usuario
// quedan revocadas: el rol viaja en el token.
func (s *Service) UpdateUser(ctx context.Context, caller access.Caller, id string, in AdminUpdateInput) (User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := access.RequireAll(caller, access.ResourceUser, access.ActionWrite); err != nil {
		return User{}, err
	}

	changed := false
	if in.Role != nil {
		role, ok := access.ParseRole(*in.Role)
		if !ok {
			return User{}, fmt.Errorf("%w: role must be USER, VET or ADMIN", ErrInvalidInput)
		}
		if role != u.Role {
			u.Role = role
			changed = true
		}
	}
	if in.Active != nil && *in.Active != u.Active {
		u.Active = *in.Active
		changed = true
	}
	if !changed {
		return u, nil
	}
	if u.ID == caller.UserID {
		return User{}, fmt.Errorf("%w: admins cannot change their own role or status", ErrInvalidInput)
	}
	u.UpdatedAt = s.now()

	if err := s.update(ctx, u); err != nil {
		return User{}, err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeSubject(ctx, u.ID); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

// GetPermissions no toca persistencia: es la tabla anunciada para el rol.
func (s *Service) GetPermissions(role access.Role) (access.RolePermissions, error) {
	return access.PermissionsFor(role)
}

func (s *Service) get(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) update(ctx context.Context, u User) error {
	err := s.repo.Update(ctx, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrConflict):
		return ErrEmailTaken
	case errors.Is(err, apperr.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
