package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-care-api/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id,
	name, species, breed, sex,
	birth_date, weight_kg, description,
	created_at, updated_at, deleted_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, owner_user_id,
			name, species, breed, sex,
			birth_date, weight_kg, description,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.Species,
		p.Breed,
		string(p.Sex),
		toNullTime(p.BirthDate),
		toNullFloat(p.WeightKg),
		p.Description,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err)
}

// Update nunca toca una mascota eliminada.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			weight_kg = $7,
			description = $8,
			updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		string(p.Sex),
		toNullTime(p.BirthDate),
		toNullFloat(p.WeightKg),
		p.Description,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

// GetByID incluye filas soft-deleted; el servicio decide.
func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	return scanPet(row)
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR owner_user_id = $1)
		ORDER BY created_at DESC, id DESC
	`, strings.TrimSpace(f.OwnerUserID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, at)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var sex string
	var bd, deleted sql.NullTime
	var weight sql.NullFloat64
	if err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&sex,
		&bd,
		&weight,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
		&deleted,
	); err != nil {
		return pets.Pet{}, mapError(err)
	}

	p.Sex = pets.Sex(sex)
	// ojo: birth_date es date, pgx lo mapea a time.Time midnight UTC
	p.BirthDate = fromNullTime(bd)
	p.DeletedAt = fromNullTime(deleted)
	if weight.Valid {
		w := weight.Float64
		p.WeightKg = &w
	}
	return p, nil
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
