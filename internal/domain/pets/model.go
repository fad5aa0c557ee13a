package pets

import (
	"strings"
	"time"
)

// Sex define el sexo de la mascota.
// @Enum MALE, FEMALE, UNKNOWN
type Sex string

const (
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
	SexUnknown Sex = "UNKNOWN"
)

func ParseSex(s string) (Sex, bool) {
	switch Sex(strings.ToUpper(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, true
	case SexFemale:
		return SexFemale, true
	case SexUnknown, "":
		return SexUnknown, true
	default:
		return "", false
	}
}

// Pet es el registro persistido. La especie se guarda como "species";
// hacia afuera se expone como "type" (ver mapping.go).
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species string // Perro, Gato, Loro, Conejo, Otros...
	Breed   string
	Sex     Sex

	BirthDate   *time.Time
	WeightKg    *float64
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // soft delete
}

func (p Pet) IsDeleted() bool {
	return p.DeletedAt != nil
}

// OwnerSummary es lo que se muestra del dueño junto a la mascota.
type OwnerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Detail es la mascota con la info de su dueño (GET /pets/{id}).
type Detail struct {
	Pet   Pet
	Owner *OwnerSummary
}
