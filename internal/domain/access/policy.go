package access

import (
	"fmt"
	"strings"

	"pet-care-api/internal/platform/apperr"
)

// ErrForbidden: el recurso existe pero el caller no tiene scope sobre él.
var ErrForbidden = apperr.ErrForbidden

type rules map[Permission]Scope

// table es la única fuente de verdad de permisos. Un permiso ausente es DENY.
var table = map[Role]rules{
	RoleUser: {
		{ResourceUser, ActionRead}:      ScopeOwn,
		{ResourceUser, ActionWrite}:     ScopeOwn,
		{ResourcePet, ActionRead}:       ScopeOwn,
		{ResourcePet, ActionWrite}:      ScopeOwn,
		{ResourcePet, ActionDelete}:     ScopeOwn,
		{ResourceVaccine, ActionRead}:   ScopeOwn,
		{ResourceVaccine, ActionWrite}:  ScopeOwn,
		{ResourceVaccine, ActionDelete}: ScopeOwn,
	},
	RoleVet: {
		{ResourceUser, ActionRead}:      ScopeOwn,
		{ResourceUser, ActionWrite}:     ScopeOwn,
		{ResourcePet, ActionRead}:       ScopeAll,
		{ResourceVaccine, ActionRead}:   ScopeAll,
		{ResourceVaccine, ActionWrite}:  ScopeAll,
		{ResourceVaccine, ActionDelete}: ScopeAll,
	},
	RoleAdmin: {
		{ResourceUser, ActionRead}:      ScopeAll,
		{ResourceUser, ActionWrite}:     ScopeAll,
		{ResourceUser, ActionDelete}:    ScopeAll,
		{ResourcePet, ActionRead}:       ScopeAll,
		{ResourcePet, ActionWrite}:      ScopeAll,
		{ResourcePet, ActionDelete}:     ScopeAll,
		{ResourceVaccine, ActionRead}:   ScopeAll,
		{ResourceVaccine, ActionWrite}:  ScopeAll,
		{ResourceVaccine, ActionDelete}: ScopeAll,
	},
}

// Authorize decide si caller puede ejecutar action sobre target.
// Es determinística y sin efectos: solo consulta la tabla.
//
// Para operaciones sobre un recurso puntual el servicio debe haber confirmado antes
// que el recurso existe; aquí solo se compara el dueño.
func Authorize(c Caller, t Target, a Action) Decision {
	scope, ok := table[c.Role][Permission{Resource: t.Resource, Action: a}]
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return Decision{Allowed: false, Scope: ScopeNone}
	}

	if scope == ScopeOwn && t.OwnerUserID != "" && t.OwnerUserID != c.UserID {
		return Decision{Allowed: false, Scope: ScopeOwn}
	}

	return Decision{Allowed: true, Scope: scope}
}

// Check es Authorize devolviendo error, para usar directo en los servicios.
func Check(c Caller, t Target, a Action) (Scope, error) {
	d := Authorize(c, t, a)
	if !d.Allowed {
		return ScopeNone, fmt.Errorf("%w: %s cannot %s %s", ErrForbidden, roleLabel(c.Role), a, t.Resource)
	}
	return d.Scope, nil
}

// RequireAll exige scope global (p.ej. listar usuarios, cambiar roles).
func RequireAll(c Caller, r Resource, a Action) error {
	d := Authorize(c, Target{Resource: r}, a)
	if !d.Allowed || d.Scope != ScopeAll {
		return fmt.Errorf("%w: %s cannot %s all %s", ErrForbidden, roleLabel(c.Role), a, r)
	}
	return nil
}

// Allows responde si role tiene permission con al menos el scope pedido.
func Allows(role Role, p Permission, scope Scope) bool {
	got, ok := table[role][p]
	if !ok {
		return false
	}
	if scope == ScopeAll {
		return got == ScopeAll
	}
	return true
}

func roleLabel(r Role) string {
	if r == "" {
		return "anonymous"
	}
	return strings.ToLower(string(r))
}
