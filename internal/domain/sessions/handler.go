package sessions

import (
	"net/http"
	"time"

	"pet-care-api/internal/domain/users"
	"pet-care-api/internal/middleware"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc))
		ar.Post("/logout", logoutHandler(svc))
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role" enums:"USER,VET,ADMIN"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      users.UserView `json:"user"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta y devuelve un token de sesión. `role` es opcional (USER por defecto); VET y ADMIN solo si AUTH_ALLOW_PRIVILEGED_SIGNUP está activo. La contraseña necesita al menos 6 caracteres.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} sessionResponse
// @Failure 400 {object} httpx.ErrorResponse "invalid json / validación"
// @Failure 403 {object} httpx.ErrorResponse "role cannot be self-assigned"
// @Failure 409 {object} httpx.ErrorResponse "email already registered"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		res, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Role:     req.Role,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(res))
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Email desconocido, contraseña incorrecta y cuenta inactiva devuelven el mismo 401.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} httpx.ErrorResponse "invalid json"
// @Failure 401 {object} httpx.ErrorResponse "invalid credentials"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		res, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res))
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Description Revoca el token presentado hasta su expiración.
// @Tags auth
// @Param Authorization header string true "Bearer token"
// @Success 204 "sin contenido"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Router /auth/logout [post]
func logoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		if err := svc.Logout(r.Context(), claims); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toSessionResponse(res Result) sessionResponse {
	return sessionResponse{
		User:      users.ToView(res.User),
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
	}
}
