package middleware

import (
	"net/http"
	"runtime/debug"

	"pet-care-api/internal/platform/httpx"
	"pet-care-api/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover reemplaza a chi/middleware.Recoverer: mismo comportamiento, pero el panic
// queda en el log estructurado y la respuesta mantiene el formato JSON de errores.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				})
				httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
					Error:   "internal",
					Message: "internal error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
