package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/platform/apperr"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("%w: pet not found", apperr.ErrNotFound)
)

// OwnerDirectory resuelve la info pública del dueño sin importar el paquete users
// (users importa pets para el perfil; así se evita el ciclo).
type OwnerDirectory interface {
	OwnerSummary(ctx context.Context, userID string) (OwnerSummary, error)
}

type Service struct {
	repo   Repository
	owners OwnerDirectory
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		now:    time.Now,
	}
}

// CreateInput usa el nombre público "type"; la traducción a species ocurre una sola vez
// vía FromView.
type CreateInput struct {
	Name        string
	Type        string
	Breed       string
	Sex         string
	BirthDate   *time.Time
	WeightKg    *float64
	Description string
}

// Optional distingue "no enviado" de "enviado como null" en PATCH.
type Optional[T any] struct {
	Present bool
	Value   *T
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string
	Type        *string
	Breed       *string
	Sex         *string
	Description *string

	BirthDate Optional[time.Time]
	WeightKg  Optional[float64]
}

func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (Pet, error) {
	// La mascota nueva pertenece al caller; VET no tiene pets:write.
	if _, err := access.Check(caller, access.Target{Resource: access.ResourcePet, OwnerUserID: caller.UserID}, access.ActionWrite); err != nil {
		return Pet{}, err
	}

	sex, ok := ParseSex(in.Sex)
	if !ok {
		return Pet{}, fmt.Errorf("%w: sex must be MALE, FEMALE or UNKNOWN", ErrInvalidInput)
	}

	now := s.now()
	v := PetView{
		ID:          uuid.NewString(),
		OwnerUserID: caller.UserID,
		Name:        strings.TrimSpace(in.Name),
		Type:        strings.TrimSpace(in.Type),
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   in.BirthDate,
		WeightKg:    in.WeightKg,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.validate(v); err != nil {
		return Pet{}, err
	}

	p := FromView(v)
	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// List aplica el scope del engine como filtro: USER ve las suyas, VET/ADMIN todas.
func (s *Service) List(ctx context.Context, caller access.Caller) ([]Pet, error) {
	d := access.Authorize(caller, access.Target{Resource: access.ResourcePet}, access.ActionRead)
	if !d.Allowed {
		return nil, fmt.Errorf("%w: cannot list pets", access.ErrForbidden)
	}
	return s.repo.List(ctx, ListFilter{OwnerUserID: d.OwnerFilter(caller)})
}

// Get: primero existencia (404), después permiso (403).
func (s *Service) Get(ctx context.Context, caller access.Caller, id string) (Detail, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourcePet, OwnerUserID: p.OwnerUserID}, access.ActionRead); err != nil {
		return Detail{}, err
	}

	d := Detail{Pet: p}
	if s.owners != nil {
		owner, err := s.owners.OwnerSummary(ctx, p.OwnerUserID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return Detail{}, err
		}
		if err == nil {
			d.Owner = &owner
		}
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in UpdateInput) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourcePet, OwnerUserID: current.OwnerUserID}, access.ActionWrite); err != nil {
		return Pet{}, err
	}

	v := ToView(current)
	if in.Name != nil {
		v.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		v.Type = strings.TrimSpace(*in.Type)
	}
	if in.Breed != nil {
		v.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex, ok := ParseSex(*in.Sex)
		if !ok {
			return Pet{}, fmt.Errorf("%w: sex must be MALE, FEMALE or UNKNOWN", ErrInvalidInput)
		}
		v.Sex = sex
	}
	if in.Description != nil {
		v.Description = strings.TrimSpace(*in.Description)
	}
	if in.BirthDate.Present {
		v.BirthDate = in.BirthDate.Value
	}
	if in.WeightKg.Present {
		v.WeightKg = in.WeightKg.Value
	}
	v.UpdatedAt = s.now()

	if err := s.validate(v); err != nil {
		return Pet{}, err
	}

	updated := FromView(v)
	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	return updated, nil
}

// Delete es soft delete: marca deleted_at y no toca las vacunas.
func (s *Service) Delete(ctx context.Context, caller access.Caller, id string) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourcePet, OwnerUserID: current.OwnerUserID}, access.ActionDelete); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, current.ID, s.now()); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetByID es solo chequeo de existencia: soft-deleted cuenta como inexistente.
// No aplica permisos; lo usan otros módulos antes de su propio chequeo.
func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	if p.IsDeleted() {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

// ListOwnedBy lista las mascotas activas de un usuario (vista de perfil).
func (s *Service) ListOwnedBy(ctx context.Context, ownerUserID string) ([]Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return []Pet{}, nil
	}
	return s.repo.List(ctx, ListFilter{OwnerUserID: ownerUserID})
}

func (s *Service) validate(v PetView) error {
	if v.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if v.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	if v.WeightKg != nil && *v.WeightKg < 0 {
		return fmt.Errorf("%w: weight must be >= 0", ErrInvalidInput)
	}
	if v.BirthDate != nil && v.BirthDate.After(s.now()) {
		return fmt.Errorf("%w: birth_date cannot be in the future", ErrInvalidInput)
	}
	return nil
}
