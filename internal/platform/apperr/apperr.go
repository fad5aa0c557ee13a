// Package apperr define la taxonomía de errores compartida por dominios y adapters.
// Los dominios envuelven estos sentinels con fmt.Errorf("%w: ...") y la capa HTTP
// los clasifica con errors.Is.
package apperr

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Kind devuelve el nombre corto del sentinel que envuelve err ("" si no es de dominio).
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return ""
	}
}
