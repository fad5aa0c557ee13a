package vaccines

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
	r.Route("/vaccines", func(vr chi.Router) {
		vr.Post("/", createVaccineHandler(svc))
		vr.Get("/", listVaccinesHandler(svc))
		vr.Get("/pet/{petID}", listPetVaccinesHandler(svc))
		vr.Get("/{vaccineID}", getVaccineHandler(svc))
		vr.Patch("/{vaccineID}", updateVaccineHandler(svc))
		vr.Delete("/{vaccineID}", deleteVaccineHandler(svc))
	})
}

type createVaccineRequest struct {
	PetID        string `json:"pet_id"`
	Name         string `json:"name"`
	AppliedDate  string `json:"applied_date"` // YYYY-MM-DD o RFC3339
	NextDose     string `json:"next_dose"`    // opcional
	Observations string `json:"observations"`
}

type updateVaccineRequest struct {
	Name         *string `json:"name"`
	AppliedDate  *string `json:"applied_date"`
	Observations *string `json:"observations"`
	// next_dose admite null (= limpiar); se lee del mapa crudo.
	NextDose json.RawMessage `json:"next_dose" swaggertype:"string"`
}

type vaccineResponse struct {
	ID           string     `json:"id"`
	PetID        string     `json:"pet_id"`
	Name         string     `json:"name"`
	AppliedDate  time.Time  `json:"applied_date"`
	NextDose     *time.Time `json:"next_dose,omitempty"`
	Observations string     `json:"observations"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Pet          PetSummary `json:"pet"`
}

// createVaccineHandler godoc
// @Summary Registrar vacuna
// @Description Registra una vacuna sobre una mascota activa. USER solo en sus mascotas; VET y ADMIN en cualquiera. 404 si la mascota no existe o fue eliminada.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createVaccineRequest true "Datos de la vacuna; fechas YYYY-MM-DD o RFC3339"
// @Success 201 {object} vaccineResponse
// @Failure 400 {object} httpx.ErrorResponse "invalid json / fechas inválidas"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /vaccines [post]
func createVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req createVaccineRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if strings.TrimSpace(req.PetID) == "" {
			httpx.WriteError(w, r, fmt.Errorf("%w: pet_id is required", apperr.ErrInvalidInput))
			return
		}
		if strings.TrimSpace(req.AppliedDate) == "" {
			httpx.WriteError(w, r, fmt.Errorf("%w: applied_date is required", apperr.ErrInvalidInput))
			return
		}

		applied, err := httpx.ParseDate(req.AppliedDate)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var next *time.Time
		if strings.TrimSpace(req.NextDose) != "" {
			t, err := httpx.ParseDate(req.NextDose)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			next = &t
		}

		v, err := svc.Create(r.Context(), caller, CreateInput{
			PetID:        req.PetID,
			Name:         req.Name,
			AppliedDate:  applied,
			NextDose:     next,
			Observations: req.Observations,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toVaccineResponse(v))
	}
}

// listVaccinesHandler godoc
// @Summary Listar vacunas
// @Description USER ve las vacunas de sus mascotas; VET y ADMIN todas. Excluye vacunas de mascotas eliminadas. Orden: created_at desc.
// @Tags vaccines
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} vaccineResponse
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 500 {object} httpx.ErrorResponse "internal error"
// @Router /vaccines [get]
func listVaccinesHandler(svc *Service) http.HandlerFunc {
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
		httpx.WriteJSON(w, http.StatusOK, toVaccineResponses(items))
	}
}

// listPetVaccinesHandler godoc
// @Summary Vacunas de una mascota
// @Description Historial de vacunas de la mascota, ordenado por applied_date desc.
// @Tags vaccines
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} vaccineResponse
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /vaccines/pet/{petID} [get]
func listPetVaccinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), caller, chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toVaccineResponses(items))
	}
}

// getVaccineHandler godoc
// @Summary Detalle de vacuna
// @Tags vaccines
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param vaccineID path string true "ID de la vacuna"
// @Success 200 {object} vaccineResponse
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "vaccine not found"
// @Router /vaccines/{vaccineID} [get]
func getVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		v, err := svc.Get(r.Context(), caller, chi.URLParam(r, "vaccineID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toVaccineResponse(v))
	}
}

// updateVaccineHandler godoc
// @Summary Actualizar vacuna
// @Description PATCH parcial. `next_dose` acepta null para limpiar.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param vaccineID path string true "ID de la vacuna"
// @Param payload body updateVaccineRequest true "Campos a modificar"
// @Success 200 {object} vaccineResponse
// @Failure 400 {object} httpx.ErrorResponse "invalid json / fechas inválidas"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "vaccine not found"
// @Router /vaccines/{vaccineID} [patch]
func updateVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		var req updateVaccineRequest
		raw, err := httpx.DecodePatch(r, &req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		in := UpdateInput{Name: req.Name, Observations: req.Observations}
		if req.AppliedDate != nil {
			t, err := httpx.ParseDate(*req.AppliedDate)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			in.AppliedDate = &t
		}
		if v, exists := raw["next_dose"]; exists {
			in.NextDose.Present = true
			if !httpx.IsNull(v) {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					httpx.WriteError(w, r, fmt.Errorf("%w: next_dose must be a date or null", apperr.ErrInvalidInput))
					return
				}
				t, err := httpx.ParseDate(s)
				if err != nil {
					httpx.WriteError(w, r, err)
					return
				}
				in.NextDose.Value = &t
			}
		}

		updated, err := svc.Update(r.Context(), caller, chi.URLParam(r, "vaccineID"), in)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toVaccineResponse(updated))
	}
}

// deleteVaccineHandler godoc
// @Summary Eliminar vacuna
// @Description Borrado físico. USER en sus mascotas; VET y ADMIN en cualquiera.
// @Tags vaccines
// @Param Authorization header string false "Bearer token"
// @Param vaccineID path string true "ID de la vacuna"
// @Success 204 "sin contenido"
// @Failure 401 {object} httpx.ErrorResponse "unauthorized"
// @Failure 403 {object} httpx.ErrorResponse "forbidden"
// @Failure 404 {object} httpx.ErrorResponse "vaccine not found"
// @Router /vaccines/{vaccineID} [delete]
func deleteVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), caller, chi.URLParam(r, "vaccineID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toVaccineResponse(v Vaccine) vaccineResponse {
	return vaccineResponse{
		ID:           v.ID,
		PetID:        v.PetID,
		Name:         v.Name,
		AppliedDate:  v.AppliedDate,
		NextDose:     v.NextDose,
		Observations: v.Observations,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		Pet:          SummaryOf(v.Pet),
	}
}

func toVaccineResponses(items []Vaccine) []vaccineResponse {
	out := make([]vaccineResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toVaccineResponse(v))
	}
	return out
}
