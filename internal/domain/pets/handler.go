package pets

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-care-api/internal/middleware"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})
}

type createPetRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Breed       string   `json:"breed"`
	Sex         string   `json:"sex"`
	BirthDate   string   `json:"birth_date"` // YYYY-MM-DD opcional
	Weight      *float64 `json:"weight"`
	Description string   `json:"description"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Breed       *string `json:"breed"`
	Sex         *string `json:"sex"`
	Description *string `json:"description"`
	// birth_date y weight admiten null (= limpiar); se leen del mapa crudo.
	BirthDate json.RawMessage `json:"birth_date" swaggertype:"string"`
	Weight    json.RawMessage `json:"weight" swaggertype:"number"`
}

type petDetailResponse struct {
	PetView
	Owner *OwnerSummary `json:"owner,omitempty"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Registra una mascota a nombre del usuario autenticado. Requiere `pets:write` (USER o ADMIN). La especie se envía como `type`.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota; birth_date en formato YYYY-MM-DD"
// @Success 201 {object} PetView
// @Failure 400 {object} httpx.ErrorResponse "invalid json / reglas de negocio"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req createPetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := httpx.ParseDate(req.BirthDate)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), caller, CreateInput{
			Name:        req.Name,
			Type:        req.Type,
			Breed:       req.Breed,
			Sex:         req.Sex,
			BirthDate:   bd,
			WeightKg:    req.Weight,
			Description: req.Description,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, ToView(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Description USER ve solo sus mascotas; VET y ADMIN ven todas. Nunca incluye mascotas eliminadas.
// @Tags pets
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} PetView
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 500 {object} httpx.ErrorResponse "internal error"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), caller)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]PetView, 0, len(items))
		for _, p := range items {
			out = append(out, ToView(p))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota
// @Description Devuelve la mascota con el resumen de su dueño. 404 si no existe o fue eliminada; 403 si existe pero el caller no tiene alcance.
// @Tags pets
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petDetailResponse
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		d, err := svc.Get(r.Context(), caller, chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, petDetailResponse{PetView: ToView(d.Pet), Owner: d.Owner})
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description PATCH parcial. `birth_date` y `weight` aceptan null para limpiar el valor. Dueño o ADMIN.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} PetView
// @Failure 400 {object} httpx.ErrorResponse "invalid json / reglas de negocio"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req updatePetRequest
		raw, err := httpx.DecodePatch(r, &req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		in := UpdateInput{
			Name:        req.Name,
			Type:        req.Type,
			Breed:       req.Breed,
			Sex:         req.Sex,
			Description: req.Description,
		}

		if v, exists := raw["birth_date"]; exists {
			in.BirthDate.Present = true
			if !httpx.IsNull(v) {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					httpx.WriteError(w, r, fmt.Errorf("%w: birth_date must be YYYY-MM-DD or null", apperr.ErrInvalidInput))
					return
				}
				t, err := httpx.ParseDate(s)
				if err != nil {
					httpx.WriteError(w, r, err)
					return
				}
				in.BirthDate.Value = &t
			}
		}

		if v, exists := raw["weight"]; exists {
			in.WeightKg.Present = true
			if !httpx.IsNull(v) {
				var f float64
				if err := json.Unmarshal(v, &f); err != nil {
					httpx.WriteError(w, r, fmt.Errorf("%w: weight must be a number or null", apperr.ErrInvalidInput))
					return
				}
				in.WeightKg.Value = &f
			}
		}

		updated, err := svc.Update(r.Context(), caller, chi.URLParam(r, "petID"), in)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, ToView(updated))
	}
}

// deletePetHandler godoc
// @Summary Eliminar mascota
// @Description Soft delete: la mascota deja de aparecer en listados y lecturas. Sus vacunas quedan guardadas. Dueño o ADMIN.
// @Tags pets
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 204 "sin contenido"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), caller, chi.URLParam(r, "petID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
