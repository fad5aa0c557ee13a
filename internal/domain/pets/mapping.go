package pets

import "time"

// PetView es la forma pública de Pet: mismo contenido, pero la especie
// se llama "type". ToView y FromView son inversas y totales: ningún campo
// se pierde ni se duplica en el ida y vuelta.
type PetView struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Breed       string     `json:"breed"`
	Sex         Sex        `json:"sex"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	WeightKg    *float64   `json:"weight,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func ToView(p Pet) PetView {
	return PetView{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Type:        p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		WeightKg:    p.WeightKg,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		DeletedAt:   p.DeletedAt,
	}
}

func FromView(v PetView) Pet {
	return Pet{
		ID:          v.ID,
		OwnerUserID: v.OwnerUserID,
		Name:        v.Name,
		Species:     v.Type,
		Breed:       v.Breed,
		Sex:         v.Sex,
		BirthDate:   v.BirthDate,
		WeightKg:    v.WeightKg,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		DeletedAt:   v.DeletedAt,
	}
}
