package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-care-api/internal/platform/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrNotFound = apperr.ErrNotFound
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables para MVP (ajustable luego)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schema es idempotente: se puede correr en cada arranque.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('USER', 'VET', 'ADMIN')),
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pets (
		id            TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL REFERENCES users (id),
		name          TEXT NOT NULL,
		species       TEXT NOT NULL,
		breed         TEXT NOT NULL DEFAULT '',
		sex           TEXT NOT NULL DEFAULT 'UNKNOWN',
		birth_date    DATE,
		weight_kg     DOUBLE PRECISION CHECK (weight_kg IS NULL OR weight_kg >= 0),
		description   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		deleted_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS pets_owner_active_idx ON pets (owner_user_id, created_at DESC) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS vaccines (
		id           TEXT PRIMARY KEY,
		pet_id       TEXT NOT NULL REFERENCES pets (id),
		name         TEXT NOT NULL,
		applied_date TIMESTAMPTZ NOT NULL,
		next_dose    TIMESTAMPTZ,
		observations TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		CHECK (next_dose IS NULL OR next_dose >= applied_date)
	)`,
	`CREATE INDEX IF NOT EXISTS vaccines_pet_idx ON vaccines (pet_id, applied_date DESC)`,
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

// mapError traduce errores del driver a la taxonomía de apperr.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced row missing (%s)", apperr.ErrNotFound, pgErr.ConstraintName)
		case "23514": // check_violation
			return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
