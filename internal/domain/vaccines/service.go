package vaccines

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/platform/apperr"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("%w: vaccine not found", apperr.ErrNotFound)
)

// PetLookup es lo único que vaccines necesita de pets: existencia de una mascota activa.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetLookup
	now  func() time.Time
}

func NewService(repo Repository, petLookup PetLookup) *Service {
	return &Service{
		repo: repo,
		pets: petLookup,
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID        string
	Name         string
	AppliedDate  time.Time
	NextDose     *time.Time
	Observations string
}

type UpdateInput struct {
	Name         *string
	AppliedDate  *time.Time
	NextDose     pets.Optional[time.Time]
	Observations *string
}

// Create: la mascota debe existir y no estar eliminada (404); después el permiso
// de escritura contra el dueño de la mascota (403).
func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (Vaccine, error) {
	pet, err := s.pets.GetByID(ctx, in.PetID)
	if err != nil {
		return Vaccine{}, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceVaccine, OwnerUserID: pet.OwnerUserID}, access.ActionWrite); err != nil {
		return Vaccine{}, err
	}

	now := s.now()
	v := Vaccine{
		ID:           uuid.NewString(),
		PetID:        pet.ID,
		Name:         strings.TrimSpace(in.Name),
		AppliedDate:  in.AppliedDate,
		NextDose:     in.NextDose,
		Observations: strings.TrimSpace(in.Observations),
		CreatedAt:    now,
		UpdatedAt:    now,
		Pet:          pet,
	}
	if err := validate(v); err != nil {
		return Vaccine{}, err
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return Vaccine{}, err
	}
	return v, nil
}

// List: USER ve las vacunas de sus mascotas; VET/ADMIN todas. Más recientes primero.
func (s *Service) List(ctx context.Context, caller access.Caller) ([]Vaccine, error) {
	d := access.Authorize(caller, access.Target{Resource: access.ResourceVaccine}, access.ActionRead)
	if !d.Allowed {
		return nil, fmt.Errorf("%w: cannot list vaccines", access.ErrForbidden)
	}
	return s.repo.List(ctx, ListFilter{OwnerUserID: d.OwnerFilter(caller), Order: OrderCreatedDesc})
}

// ListByPet ordena por fecha de aplicación (historial de la libreta).
func (s *Service) ListByPet(ctx context.Context, caller access.Caller, petID string) ([]Vaccine, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceVaccine, OwnerUserID: pet.OwnerUserID}, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ListFilter{PetID: pet.ID, Order: OrderAppliedDesc})
}

func (s *Service) Get(ctx context.Context, caller access.Caller, id string) (Vaccine, error) {
	return s.load(ctx, caller, id, access.ActionRead)
}

func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in UpdateInput) (Vaccine, error) {
	v, err := s.load(ctx, caller, id, access.ActionWrite)
	if err != nil {
		return Vaccine{}, err
	}

	if in.Name != nil {
		v.Name = strings.TrimSpace(*in.Name)
	}
	if in.AppliedDate != nil {
		v.AppliedDate = *in.AppliedDate
	}
	if in.NextDose.Present {
		v.NextDose = in.NextDose.Value
	}
	if in.Observations != nil {
		v.Observations = strings.TrimSpace(*in.Observations)
	}
	v.UpdatedAt = s.now()

	if err := validate(v); err != nil {
		return Vaccine{}, err
	}

	if err := s.repo.Update(ctx, v); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Vaccine{}, ErrNotFound
		}
		return Vaccine{}, err
	}
	return v, nil
}

// Delete es físico.
func (s *Service) Delete(ctx context.Context, caller access.Caller, id string) error {
	v, err := s.load(ctx, caller, id, access.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, v.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// load aplica el orden existencia -> permiso. Una vacuna cuya mascota fue eliminada
// queda oculta igual que la mascota.
func (s *Service) load(ctx context.Context, caller access.Caller, id string, a access.Action) (Vaccine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Vaccine{}, ErrNotFound
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Vaccine{}, ErrNotFound
		}
		return Vaccine{}, err
	}
	if v.Pet.IsDeleted() {
		return Vaccine{}, ErrNotFound
	}
	if _, err := access.Check(caller, access.Target{Resource: access.ResourceVaccine, OwnerUserID: v.Pet.OwnerUserID}, a); err != nil {
		return Vaccine{}, err
	}
	return v, nil
}

func validate(v Vaccine) error {
	if v.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if v.AppliedDate.IsZero() {
		return fmt.Errorf("%w: applied_date is required", ErrInvalidInput)
	}
	if v.NextDose != nil && v.NextDose.Before(v.AppliedDate) {
		return fmt.Errorf("%w: next_dose cannot precede applied_date", ErrInvalidInput)
	}
	return nil
}
