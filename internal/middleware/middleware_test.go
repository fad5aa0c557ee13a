package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/httpx"
	"pet-care-api/internal/platform/logger"
	"pet-care-api/internal/platform/metrics"
	"pet-care-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]auth.Claims

type failingVerifier struct{ err error }

func (f failingVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return auth.Claims{}, f.err
}

func (s stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	c, ok := s[token]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return c, nil
}

func callerOf(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) (access.Caller, bool) {
	t.Helper()
	var (
		got access.Caller
		ok  bool
	)
	h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetCaller(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_Bearer(t *testing.T) {
	v := stubVerifier{"good": {UserID: "u1", Role: "VET", TokenID: "t1"}}
	mw := AuthContext(v, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	c, ok := callerOf(t, mw, req)
	require.True(t, ok)
	assert.Equal(t, access.Caller{UserID: "u1", Role: access.RoleVet}, c)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	_, ok = callerOf(t, mw, req)
	assert.False(t, ok, "invalid token leaves the request anonymous")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic good")
	_, ok = callerOf(t, mw, req)
	assert.False(t, ok)
}

func TestAuthContext_DebugHeaders(t *testing.T) {
	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Debug-User-ID", "dev-1")
		r.Header.Set("X-Debug-User-Role", "admin")
		return r
	}

	_, ok := callerOf(t, AuthContext(stubVerifier{}, false), req())
	assert.False(t, ok, "ignored when disabled")

	c, ok := callerOf(t, AuthContext(stubVerifier{}, true), req())
	require.True(t, ok)
	assert.Equal(t, access.RoleAdmin, c.Role)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Debug-User-ID", "dev-2")
	c, ok = callerOf(t, AuthContext(nil, true), r)
	require.True(t, ok)
	assert.Equal(t, access.RoleUser, c.Role, "role defaults to USER")
}

func TestGetCaller_UnknownRoleHasNoPermissions(t *testing.T) {
	ctx := WithClaims(context.Background(), auth.Claims{UserID: "u1", Role: "ROOT"})
	c, ok := GetCaller(ctx)
	require.True(t, ok)
	assert.False(t, access.Authorize(c, access.Target{Resource: access.ResourcePet}, access.ActionRead).Allowed)

	_, ok = GetCaller(WithClaims(context.Background(), auth.Claims{Role: "USER"}))
	assert.False(t, ok, "claims without user id are not a caller")
}

func TestRecover_WritesJSON500(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal","message":"internal error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecover_RepanicsOnAbort(t *testing.T) {
	h := Recover(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestLogger_UsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(RequestLogger(log, m))
	r.Get("/pets/{petID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pets/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pets/def", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/pets/{petID}", "404")))
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"route":"/pets/{petID}"`))
	assert.Contains(t, out, `"level":"warning"`)
}

func jsonLogger(buf *bytes.Buffer) logger.Logger {
	return logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: buf})
}

func TestWriteError_LogsCauseWithRequestID(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(jsonLogger(&buf), nil))
	r.Get("/pets", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, errors.New("pq: deadlock detected"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadlock")

	out := buf.String()
	assert.Contains(t, out, `"msg":"unhandled error"`)
	assert.Contains(t, out, `"error":"pq: deadlock detected"`)
	assert.Contains(t, out, `"request_id":"`)
	assert.NotContains(t, out, `"request_id":""`)
}

func TestWriteError_ClassifiedErrorsAreNotLogged(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(RequestLogger(jsonLogger(&buf), nil))
	r.Get("/pets/{petID}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, apperr.ErrNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets/x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, buf.String(), "unhandled error")
}

func TestAuthContext_VerifierFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	reached := false

	h := RequestLogger(jsonLogger(&buf), nil)(
		AuthContext(failingVerifier{err: errors.New("dial tcp 10.0.0.7:6379: connection refused")}, false)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal","message":"internal error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "connection refused")
}

func TestAuthContext_InvalidTokenStaysAnonymous(t *testing.T) {
	var buf bytes.Buffer
	reached := false

	h := RequestLogger(jsonLogger(&buf), nil)(
		AuthContext(failingVerifier{err: fmt.Errorf("%w: expired", apperr.ErrUnauthorized)}, false)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok := GetCaller(r.Context())
				reached = !ok
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, reached, "handler runs without a caller")
	assert.NotContains(t, buf.String(), "unhandled error")
}
