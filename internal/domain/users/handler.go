package users

import (
	"net/http"
	"strings"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/middleware"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/me", getMeHandler(svc))
		ur.Patch("/me", updateMeHandler(svc))
		ur.Get("/permissions", permissionsHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Patch("/{userID}", adminUpdateUserHandler(svc))
	})
}

type profileResponse struct {
	UserView
	Pets []pets.PetView `json:"pets"`
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type adminUpdateUserRequest struct {
	Role   *string `json:"role" enums:"USER,VET,ADMIN"`
	Active *bool   `json:"active"`
}

// getMeHandler godoc
// @Summary Mi perfil
// @Description Datos del usuario autenticado y sus mascotas activas.
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} profileResponse
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 404 {object} httpx.ErrorResponse "user not found"
// @Router /users/me [get]
func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		p, err := svc.GetOwnProfile(r.Context(), caller)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := profileResponse{UserView: ToView(p.User), Pets: make([]pets.PetView, 0, len(p.Pets))}
		for _, pet := range p.Pets {
			out.Pets = append(out.Pets, pets.ToView(pet))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// updateMeHandler godoc
// @Summary Editar mi perfil
// @Description Cambia nombre, email o teléfono. 409 si el email ya pertenece a otro usuario.
// @Tags users
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} UserView
// @Failure 400 {object} httpx.ErrorResponse "invalid json / email inválido"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 409 {object} httpx.ErrorResponse "email already registered"
// @Router /users/me [patch]
func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req updateProfileRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.UpdateOwnProfile(r.Context(), caller, ProfileInput{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToView(u))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Description Solo ADMIN.
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} UserView
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		items, err := svc.ListUsers(r.Context(), caller)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]UserView, 0, len(items))
		for _, u := range items {
			out = append(out, ToView(u))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// permissionsHandler godoc
// @Summary Permisos y menú por rol
// @Description Descriptor estático para el frontend. Sin `role` usa el rol del token.
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param role query string false "USER, VET o ADMIN"
// @Success 200 {object} access.RolePermissions
// @Failure 400 {object} httpx.ErrorResponse "unknown role"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Router /users/permissions [get]
func permissionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		role := caller.Role
		if q := strings.TrimSpace(r.URL.Query().Get("role")); q != "" {
			role = access.Role(strings.ToUpper(q))
		}

		perms, err := svc.GetPermissions(role)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, perms)
	}
}

// getUserHandler godoc
// @Summary Detalle de usuario
// @Description ADMIN puede ver cualquier usuario; el resto solo a sí mismo.
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} UserView
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "user not found"
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		u, err := svc.GetUser(r.Context(), caller, chi.URLParam(r, "userID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToView(u))
	}
}

// adminUpdateUserHandler godoc
// @Summary Cambiar rol o estado de un usuario
// @Description Solo ADMIN. Revoca las sesiones vigentes del usuario si el rol o el estado cambian.
// @Tags users
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param userID path string true "ID del usuario"
// @Param payload body adminUpdateUserRequest true "Rol y/o estado"
// @Success 200 {object} UserView
// @Failure 400 {object} httpx.ErrorResponse "invalid json / rol inválido"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "user not found"
// @Router /users/{userID} [patch]
func adminUpdateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req adminUpdateUserRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.UpdateUser(r.Context(), caller, chi.URLParam(r, "userID"), AdminUpdateInput{
			Role:   req.Role,
			Active: req.Active,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToView(u))
	}
}
