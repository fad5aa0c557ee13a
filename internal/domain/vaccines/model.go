package vaccines

import (
	"time"

	"pet-care-api/internal/domain/pets"
)

// Vaccine es una aplicación registrada sobre una mascota. Se borra físicamente.
type Vaccine struct {
	ID    string
	PetID string

	Name         string
	AppliedDate  time.Time
	NextDose     *time.Time
	Observations string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Pet viene del join con pets (id, nombre, especie, dueño, deleted_at).
	// Es la fuente del dueño para autorizar; no se persiste desde aquí.
	Pet pets.Pet
}

// PetSummary es lo que se muestra de la mascota junto a cada vacuna.
type PetSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func SummaryOf(p pets.Pet) PetSummary {
	v := pets.ToView(p)
	return PetSummary{ID: v.ID, Name: v.Name, Type: v.Type}
}
