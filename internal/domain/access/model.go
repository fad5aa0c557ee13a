package access

import (
	"fmt"
	"strings"
)

// Role es un enum plano: no hay herencia entre roles, solo la tabla de permisos.
type Role string

const (
	RoleUser  Role = "USER"
	RoleVet   Role = "VET"
	RoleAdmin Role = "ADMIN"
)

// Roles en orden estable (para menús, tests y validación).
var Roles = []Role{RoleUser, RoleVet, RoleAdmin}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

type Resource string

const (
	ResourceUser    Resource = "users"
	ResourcePet     Resource = "pets"
	ResourceVaccine Resource = "vaccines"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Scope es el filtro de filas al que da derecho un (rol, permiso).
type Scope string

const (
	ScopeNone Scope = ""
	ScopeOwn  Scope = "own"
	ScopeAll  Scope = "all"
)

// Permission es el par recurso + acción ("pets:read").
type Permission struct {
	Resource Resource
	Action   Action
}

func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// Caller es la identidad verificada que llega del token.
type Caller struct {
	UserID string
	Role   Role
}

// Target describe el recurso sobre el que se decide.
// OwnerUserID vacío => operación de listado (la decisión solo devuelve scope).
// Para vacunas, OwnerUserID es el dueño de la mascota.
type Target struct {
	Resource    Resource
	OwnerUserID string
}

// Decision es el resultado de Authorize.
type Decision struct {
	Allowed bool
	Scope   Scope
}

// OwnerFilter devuelve el owner a aplicar como filtro de listado ("" = sin filtro).
func (d Decision) OwnerFilter(c Caller) string {
	if d.Scope == ScopeOwn {
		return c.UserID
	}
	return ""
}

func (d Decision) String() string {
	if !d.Allowed {
		return "deny"
	}
	return fmt.Sprintf("allow(%s)", d.Scope)
}
