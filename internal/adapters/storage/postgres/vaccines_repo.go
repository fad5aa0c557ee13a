package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-care-api/internal/domain/vaccines"
)

type VaccinesRepo struct {
	db *sql.DB
}

func NewVaccinesRepo(db *sql.DB) *VaccinesRepo {
	return &VaccinesRepo{db: db}
}

// vaccineSelect trae la vacuna con lo necesario de su mascota para autorizar y resumir.
const vaccineSelect = `
	SELECT
		v.id, v.pet_id, v.name, v.applied_date, v.next_dose, v.observations,
		v.created_at, v.updated_at,
		p.owner_user_id, p.name, p.species, p.deleted_at
	FROM vaccines v
	JOIN pets p ON p.id = v.pet_id`

func (r *VaccinesRepo) Create(ctx context.Context, v vaccines.Vaccine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccines (
			id, pet_id, name, applied_date, next_dose, observations,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		v.ID,
		v.PetID,
		v.Name,
		v.AppliedDate,
		toNullTime(v.NextDose),
		v.Observations,
		v.CreatedAt,
		v.UpdatedAt,
	)
	return mapError(err)
}

func (r *VaccinesRepo) GetByID(ctx context.Context, id string) (vaccines.Vaccine, error) {
	row := r.db.QueryRowContext(ctx, vaccineSelect+` WHERE v.id = $1`, id)
	return scanVaccine(row)
}

func (r *VaccinesRepo) Update(ctx context.Context, v vaccines.Vaccine) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vaccines
		SET
			name = $2,
			applied_date = $3,
			next_dose = $4,
			observations = $5,
			updated_at = $6
		WHERE id = $1
	`,
		v.ID,
		v.Name,
		v.AppliedDate,
		toNullTime(v.NextDose),
		v.Observations,
		v.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *VaccinesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *VaccinesRepo) List(ctx context.Context, f vaccines.ListFilter) ([]vaccines.Vaccine, error) {
	where := []string{"p.deleted_at IS NULL"}
	args := make([]any, 0, 2)

	if petID := strings.TrimSpace(f.PetID); petID != "" {
		args = append(args, petID)
		where = append(where, fmt.Sprintf("v.pet_id = $%d", len(args)))
	}
	if owner := strings.TrimSpace(f.OwnerUserID); owner != "" {
		args = append(args, owner)
		where = append(where, fmt.Sprintf("p.owner_user_id = $%d", len(args)))
	}

	order := "v.created_at DESC, v.id DESC"
	if f.Order == vaccines.OrderAppliedDesc {
		order = "v.applied_date DESC, v.created_at DESC, v.id DESC"
	}

	q := vaccineSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccines.Vaccine, 0)
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVaccine(row rowScanner) (vaccines.Vaccine, error) {
	var v vaccines.Vaccine
	var next, petDeleted sql.NullTime
	if err := row.Scan(
		&v.ID,
		&v.PetID,
		&v.Name,
		&v.AppliedDate,
		&next,
		&v.Observations,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.Pet.OwnerUserID,
		&v.Pet.Name,
		&v.Pet.Species,
		&petDeleted,
	); err != nil {
		return vaccines.Vaccine{}, mapError(err)
	}
	v.NextDose = fromNullTime(next)
	v.Pet.ID = v.PetID
	v.Pet.DeletedAt = fromNullTime(petDeleted)
	return v, nil
}
