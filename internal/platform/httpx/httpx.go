package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse es el cuerpo de todas las respuestas de error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor traduce un error de dominio a status HTTP.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type loggerKey struct{}

// WithLogger deja el logger del request en el contexto para que WriteError
// registre la causa de los 500. Lo instala middleware.RequestLogger.
func WithLogger(ctx context.Context, log logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// LoggerFrom devuelve el logger del request, o Nop si no hay ninguno.
func LoggerFrom(ctx context.Context) logger.Logger {
	if log, ok := ctx.Value(loggerKey{}).(logger.Logger); ok && log != nil {
		return log
	}
	return logger.Nop()
}

// WriteError escribe el error con forma uniforme. Los errores no clasificados
// nunca exponen su mensaje interno; la causa queda en el log con el request id.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		LoggerFrom(r.Context()).Error("unhandled error", map[string]any{
			"request_id": chimw.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"error":      err.Error(),
		})
		WriteJSON(w, status, ErrorResponse{Error: "internal", Message: "internal error"})
		return
	}
	WriteJSON(w, status, ErrorResponse{Error: apperr.Kind(err), Message: err.Error()})
}

// DecodeJSON decodifica el body rechazando campos desconocidos.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", apperr.ErrInvalidInput)
	}
	return nil
}

// ParseDate acepta YYYY-MM-DD o RFC3339 (lo que mandan la app móvil y el panel web).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC3339", apperr.ErrInvalidInput)
	}
	return t, nil
}

// DecodePatch decodifica un body PATCH en dst (rechazando campos desconocidos) y devuelve
// además el mapa crudo, para distinguir "campo ausente" de "campo en null".
func DecodePatch(r *http.Request, dst any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid json", apperr.ErrInvalidInput)
	}

	// Re-marshal y decode al struct para reutilizar tags (simple y suficiente).
	b, _ := json.Marshal(raw)
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: invalid json", apperr.ErrInvalidInput)
	}
	return raw, nil
}

// IsNull indica si el campo vino explícitamente como null.
func IsNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}
