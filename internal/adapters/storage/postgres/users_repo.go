package postgres

import (
	"context"
	"database/sql"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, active, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.PasswordHash,
		string(u.Role),
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapError(err)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			name = $2,
			email = $3,
			phone = $4,
			role = $5,
			active = $6,
			updated_at = $7
		WHERE id = $1
	`,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		string(u.Role),
		u.Active,
		u.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&role,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, mapError(err)
	}
	u.Role = access.Role(role)
	return u, nil
}
