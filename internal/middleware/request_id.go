package middleware

import (
	"net/http"
	"strconv"
	"time"

	"pet-care-api/internal/platform/httpx"
	"pet-care-api/internal/platform/logger"
	"pet-care-api/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger escribe una línea por request con el request id de chi/middleware.RequestID
// y alimenta las métricas HTTP (si m != nil). Va después de RequestID en la cadena.
// También deja log en el contexto para httpx.WriteError.
func RequestLogger(log logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(httpx.WithLogger(r.Context(), log))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)

			if m != nil {
				m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}

			fields := map[string]any{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"bytes":       ww.BytesWritten(),
			}
			if c, ok := GetClaims(r.Context()); ok {
				fields["user_id"] = c.UserID
			}

			switch {
			case status >= 500:
				log.Error("request", fields)
			case status >= 400:
				log.Warn("request", fields)
			default:
				log.Info("request", fields)
			}
		})
	}
}

// routePattern usa el patrón de chi (/pets/{petID}) para no explotar la cardinalidad.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
