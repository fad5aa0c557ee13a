package access

import (
	"fmt"
	"strings"

	"pet-care-api/internal/platform/apperr"
)

// MenuItem es una entrada del menú de navegación que la app arma según el rol.
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

// RolePermissions es el descriptor estático que consume el frontend.
type RolePermissions struct {
	Role        Role       `json:"role"`
	Permissions []string   `json:"permissions"`
	Menu        []MenuItem `json:"menu"`
}

// Formato: "recurso:acción" (scope own) o "recurso:acción:all".
// Cada string debe estar respaldado por la tabla de policy.go (ver permissions_test.go).
var advertised = map[Role][]string{
	RoleUser: {
		"users:read", "users:write",
		"pets:read", "pets:write", "pets:delete",
		"vaccines:read", "vaccines:write", "vaccines:delete",
	},
	RoleVet: {
		"users:read", "users:write",
		"pets:read:all",
		"vaccines:read:all", "vaccines:write:all", "vaccines:delete:all",
	},
	RoleAdmin: {
		"users:read:all", "users:write:all", "users:delete:all",
		"pets:read:all", "pets:write:all", "pets:delete:all",
		"vaccines:read:all", "vaccines:write:all", "vaccines:delete:all",
	},
}

var menus = map[Role][]MenuItem{
	RoleUser: {
		{ID: "pets", Label: "Mis mascotas", Path: "/pets", Icon: "paw"},
		{ID: "vaccines", Label: "Vacunas", Path: "/vaccines", Icon: "syringe"},
		{ID: "profile", Label: "Mi perfil", Path: "/profile", Icon: "user"},
	},
	RoleVet: {
		{ID: "patients", Label: "Pacientes", Path: "/pets", Icon: "stethoscope"},
		{ID: "vaccines", Label: "Vacunas", Path: "/vaccines", Icon: "syringe"},
		{ID: "profile", Label: "Mi perfil", Path: "/profile", Icon: "user"},
	},
	RoleAdmin: {
		{ID: "users", Label: "Usuarios", Path: "/users", Icon: "users"},
		{ID: "pets", Label: "Mascotas", Path: "/pets", Icon: "paw"},
		{ID: "vaccines", Label: "Vacunas", Path: "/vaccines", Icon: "syringe"},
		{ID: "profile", Label: "Mi perfil", Path: "/profile", Icon: "user"},
	},
}

// PermissionsFor es una tabla de lookup pura. Devuelve copias para que nadie
// pueda mutar el descriptor compartido.
func PermissionsFor(role Role) (RolePermissions, error) {
	perms, ok := advertised[role]
	if !ok {
		return RolePermissions{}, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidInput, role)
	}

	out := RolePermissions{
		Role:        role,
		Permissions: append([]string(nil), perms...),
		Menu:        append([]MenuItem(nil), menus[role]...),
	}
	return out, nil
}

// ParsePermission valida estrictamente un string anunciado.
func ParsePermission(raw string) (Permission, Scope, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Permission{}, ScopeNone, fmt.Errorf("%w: malformed permission %q", apperr.ErrInvalidInput, raw)
	}

	p := Permission{Resource: Resource(parts[0]), Action: Action(parts[1])}
	switch p.Resource {
	case ResourceUser, ResourcePet, ResourceVaccine:
	default:
		return Permission{}, ScopeNone, fmt.Errorf("%w: unknown resource in %q", apperr.ErrInvalidInput, raw)
	}
	switch p.Action {
	case ActionRead, ActionWrite, ActionDelete:
	default:
		return Permission{}, ScopeNone, fmt.Errorf("%w: unknown action in %q", apperr.ErrInvalidInput, raw)
	}

	scope := ScopeOwn
	if len(parts) == 3 {
		if Scope(parts[2]) != ScopeAll {
			return Permission{}, ScopeNone, fmt.Errorf("%w: unknown scope in %q", apperr.ErrInvalidInput, raw)
		}
		scope = ScopeAll
	}
	return p, scope, nil
}
