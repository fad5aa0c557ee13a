package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/httpx"
	"pet-care-api/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si viene Bearer token => intenta Verify() y setea claims.
// - Si debugHeaders está activo (solo dev) => X-Debug-User-ID / X-Debug-User-Role setean claims sin token.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth (401).
// - Si Verify falla por algo que no es el token => 500, con la causa en el log.
func AuthContext(verifier auth.AuthVerifier, debugHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if debugHeaders {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					role := strings.TrimSpace(r.Header.Get("X-Debug-User-Role"))
					if role == "" {
						role = string(access.RoleUser)
					}
					claims := auth.Claims{UserID: uid, Role: strings.ToUpper(role)}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if isTokenError(err) {
					// No cortamos aquí para no acoplar. El handler decide 401.
					next.ServeHTTP(w, r)
					return
				}
				// Falla de infraestructura (store de revocaciones, etc.): no es un 401.
				httpx.WriteError(w, r, fmt.Errorf("verify token: %w", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// GetCaller traduce las claims a la identidad que entiende el policy engine.
// Un rol desconocido deja el caller sin rol: el engine lo rechaza todo.
func GetCaller(ctx context.Context) (access.Caller, bool) {
	c, ok := GetClaims(ctx)
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return access.Caller{}, false
	}
	role, _ := access.ParseRole(c.Role)
	return access.Caller{UserID: c.UserID, Role: role}, true
}

// isTokenError separa "token inválido" (401 en el handler) de fallas al verificarlo.
func isTokenError(err error) bool {
	return errors.Is(err, apperr.ErrUnauthorized) || errors.Is(err, auth.ErrInvalidToken)
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
