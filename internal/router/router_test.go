package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pet-care-api/internal/platform/config"
	"pet-care-api/internal/router"
)

func testConfig(debugHeaders bool) config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "router-test-secret"
	cfg.Auth.DebugHeaders = debugHeaders
	// los escenarios dan de alta VET/ADMIN por /auth/register
	cfg.Auth.AllowPrivilegedSignup = true
	// argon2 barato: los tests registran muchos usuarios
	cfg.Auth.Argon2 = config.Argon2Config{MemoryKB: 1024, Iterations: 1, Parallelism: 1}
	return cfg
}

func newServer(t *testing.T, debugHeaders bool) *httptest.Server {
	t.Helper()
	h, err := router.NewRouter(router.Options{Config: testConfig(debugHeaders)})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

type session struct {
	UserID string
	Token  string
}

func TestHTTP_EndToEnd_OwnershipAndRoles(t *testing.T) {
	ts := newServer(t, false)

	ana := register(t, ts.URL, "Ana", "ana@example.com", "")
	bruno := register(t, ts.URL, "Bruno", "bruno@example.com", "")
	vet := register(t, ts.URL, "Dra. Vet", "vet@example.com", "VET")
	admin := register(t, ts.URL, "Admin", "admin@example.com", "ADMIN")

	// 1) Ana crea mascota
	petID := createPet(t, ts.URL, ana.Token, map[string]any{
		"name":   "Milo",
		"type":   "Perro",
		"breed":  "mestizo",
		"sex":    "male",
		"weight": 12.5,
	})

	// 2) Bruno no puede verla
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, bruno.Token, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for other user, got %d body=%s", st, string(body))
		}
	}

	// 3) ADMIN la ve con datos del dueño
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, admin.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 for admin, got %d body=%s", st, string(body))
		}
		var out struct {
			Type  string `json:"type"`
			Owner struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"owner"`
		}
		mustDecode(t, body, &out)
		if out.Type != "Perro" || out.Owner.ID != ana.UserID || out.Owner.Email != "ana@example.com" {
			t.Fatalf("unexpected detail: %s", string(body))
		}
	}

	// 4) VET lee pero no crea mascotas
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, vet.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 for vet read, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "POST", "/pets", vet.Token, map[string]any{"name": "X", "type": "Gato"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for vet create, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "DELETE", "/pets/"+petID, vet.Token, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for vet delete, got %d", st)
		}
	}

	// 5) VET registra una vacuna; Bruno no la ve, Ana sí
	vaccineID := createVaccine(t, ts.URL, vet.Token, map[string]any{
		"pet_id":       petID,
		"name":         "Antirrábica",
		"applied_date": "2025-01-10",
		"next_dose":    "2026-01-10",
	})
	{
		st, body := doReq(t, ts.URL, "GET", "/vaccines", bruno.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing vaccines, got %d", st)
		}
		if got := countItems(t, body); got != 0 {
			t.Fatalf("bruno should see no vaccines, got %d", got)
		}

		st, body = doReq(t, ts.URL, "GET", "/vaccines/pet/"+petID, ana.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing pet vaccines, got %d body=%s", st, string(body))
		}
		if got := countItems(t, body); got != 1 {
			t.Fatalf("ana should see 1 vaccine, got %d", got)
		}

		st, _ = doReq(t, ts.URL, "GET", "/vaccines/"+vaccineID, bruno.Token, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for bruno on vaccine, got %d", st)
		}
	}

	// 6) Inexistente es 404 para todos, antes que cualquier 403
	for _, s := range []session{ana, bruno, vet, admin} {
		st, _ := doReq(t, ts.URL, "GET", "/pets/does-not-exist", s.Token, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for missing pet, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/vaccines/does-not-exist", s.Token, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for missing vaccine, got %d", st)
		}
	}

	// 7) Solo ADMIN lista usuarios
	{
		st, _ := doReq(t, ts.URL, "GET", "/users", vet.Token, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 listing users as vet, got %d", st)
		}
		st, body := doReq(t, ts.URL, "GET", "/users", admin.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing users as admin, got %d", st)
		}
		if got := countItems(t, body); got != 4 {
			t.Fatalf("expected 4 users, got %d", got)
		}
	}
}

func TestHTTP_VetDeletesAnyVaccine(t *testing.T) {
	ts := newServer(t, false)
	ana := register(t, ts.URL, "Ana", "ana@example.com", "")
	bruno := register(t, ts.URL, "Bruno", "bruno@example.com", "")
	vet := register(t, ts.URL, "Dra. Vet", "vet@example.com", "VET")

	petID := createPet(t, ts.URL, ana.Token, map[string]any{"name": "Milo", "type": "Perro"})
	vaccineID := createVaccine(t, ts.URL, ana.Token, map[string]any{
		"pet_id": petID, "name": "Antirrábica", "applied_date": "2025-01-10",
	})

	st, _ := doReq(t, ts.URL, "DELETE", "/vaccines/"+vaccineID, bruno.Token, nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for other user, got %d", st)
	}

	st, body := doReq(t, ts.URL, "DELETE", "/vaccines/"+vaccineID, vet.Token, nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 for vet delete, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "GET", "/vaccines/"+vaccineID, ana.Token, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", st)
	}
}

func TestHTTP_Unauthenticated(t *testing.T) {
	ts := newServer(t, false)

	for _, p := range []string{"/pets", "/vaccines", "/users/me", "/users/permissions"} {
		st, body := doReq(t, ts.URL, "GET", p, "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", p, st)
		}
		var e struct {
			Error string `json:"error"`
		}
		mustDecode(t, body, &e)
		if e.Error != "unauthorized" {
			t.Fatalf("%s: unexpected error body %s", p, string(body))
		}
	}

	st, _ := doReq(t, ts.URL, "GET", "/pets", "not-a-token", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", st)
	}
}

func TestHTTP_RegisterConflictAndUniformLogin(t *testing.T) {
	ts := newServer(t, false)

	register(t, ts.URL, "Ana", "ana@example.com", "")

	st, _ := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"name": "Otra", "email": "ANA@example.com", "password": "secret1",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"name": "Corta", "email": "corta@example.com", "password": "12345",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 on short password, got %d", st)
	}

	st, wrongPass := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email": "ana@example.com", "password": "nope-nope",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 on wrong password, got %d", st)
	}
	st, unknown := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email": "ghost@example.com", "password": "secret1",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 on unknown email, got %d", st)
	}
	if !bytes.Equal(wrongPass, unknown) {
		t.Fatalf("login failures must be indistinguishable: %s vs %s", wrongPass, unknown)
	}

	s := login(t, ts.URL, "Ana@Example.com", "secret1")
	if s.Token == "" {
		t.Fatalf("expected token on login")
	}
}

func TestHTTP_SoftDeleteHidesPetAndVaccines(t *testing.T) {
	ts := newServer(t, false)
	ana := register(t, ts.URL, "Ana", "ana@example.com", "")

	petID := createPet(t, ts.URL, ana.Token, map[string]any{"name": "Milo", "type": "Perro"})
	vaccineID := createVaccine(t, ts.URL, ana.Token, map[string]any{
		"pet_id": petID, "name": "Séxtuple", "applied_date": "2025-02-01",
	})

	st, _ := doReq(t, ts.URL, "DELETE", "/pets/"+petID, ana.Token, nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", st)
	}

	for _, p := range []string{"/pets/" + petID, "/vaccines/" + vaccineID, "/vaccines/pet/" + petID} {
		st, _ := doReq(t, ts.URL, "GET", p, ana.Token, nil)
		if st != http.StatusNotFound {
			t.Fatalf("%s: expected 404 after delete, got %d", p, st)
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/pets", ana.Token, nil)
	if st != http.StatusOK || countItems(t, body) != 0 {
		t.Fatalf("deleted pet must not be listed: %d %s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "GET", "/vaccines", ana.Token, nil)
	if st != http.StatusOK || countItems(t, body) != 0 {
		t.Fatalf("vaccines of deleted pet must not be listed: %d %s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/vaccines", ana.Token, map[string]any{
		"pet_id": petID, "name": "Otra", "applied_date": "2025-03-01",
	})
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 creating vaccine on deleted pet, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "DELETE", "/pets/"+petID, ana.Token, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", st)
	}
}

func TestHTTP_PrivilegedSignupDisabledByDefault(t *testing.T) {
	cfg := testConfig(false)
	cfg.Auth.AllowPrivilegedSignup = false
	h, err := router.NewRouter(router.Options{Config: cfg})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"name": "Mallory", "email": "m@example.com", "password": "secret1", "role": "ADMIN",
	})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 self-assigning ADMIN, got %d body=%s", st, string(body))
	}

	s := register(t, ts.URL, "Mallory", "m@example.com", "")
	st, body = doReq(t, ts.URL, "GET", "/users/permissions", s.Token, nil)
	if st != http.StatusOK || !strings.Contains(string(body), `"role":"USER"`) {
		t.Fatalf("expected USER account, got %d %s", st, string(body))
	}
}

func TestHTTP_PetTypeFieldAndPatch(t *testing.T) {
	ts := newServer(t, false)
	ana := register(t, ts.URL, "Ana", "ana@example.com", "")

	petID := createPet(t, ts.URL, ana.Token, map[string]any{
		"name": "Milo", "type": "Perro", "weight": 10.0, "birth_date": "2020-05-01",
	})

	st, body := doReq(t, ts.URL, "PATCH", "/pets/"+petID, ana.Token, map[string]any{
		"type":   "Gato",
		"weight": nil,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 on patch, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/pets/"+petID, ana.Token, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var raw map[string]any
	mustDecode(t, body, &raw)
	if raw["type"] != "Gato" {
		t.Fatalf("expected type=Gato, got %v", raw["type"])
	}
	if _, ok := raw["species"]; ok {
		t.Fatalf("species must not be exposed: %s", string(body))
	}
	if _, ok := raw["weight"]; ok {
		t.Fatalf("weight should be cleared: %s", string(body))
	}
	if raw["name"] != "Milo" || raw["birth_date"] == nil {
		t.Fatalf("untouched fields changed: %s", string(body))
	}
}

func TestHTTP_LogoutRevokesToken(t *testing.T) {
	ts := newServer(t, false)
	ana := register(t, ts.URL, "Ana", "ana@example.com", "")
	other := login(t, ts.URL, "ana@example.com", "secret1")

	st, _ := doReq(t, ts.URL, "POST", "/auth/logout", ana.Token, nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/users/me", ana.Token, nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with revoked token, got %d", st)
	}
	st, _ = doReq(t, ts.URL, "GET", "/users/me", other.Token, nil)
	if st != http.StatusOK {
		t.Fatalf("other session should survive logout, got %d", st)
	}
}

func TestHTTP_RoleChangeRevokesSessions(t *testing.T) {
	ts := newServer(t, false)
	ana := register(t, ts.URL, "Ana", "ana@example.com", "")
	admin := register(t, ts.URL, "Admin", "admin@example.com", "ADMIN")

	st, body := doReq(t, ts.URL, "PATCH", "/users/"+ana.UserID, admin.Token, map[string]any{"role": "VET"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 on role change, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "GET", "/users/me", ana.Token, nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("old token must be rejected after role change, got %d", st)
	}

	// el token nuevo debe emitirse en un milisegundo posterior a la revocación
	time.Sleep(5 * time.Millisecond)
	fresh := login(t, ts.URL, "ana@example.com", "secret1")
	st, body = doReq(t, ts.URL, "GET", "/users/permissions", fresh.Token, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 with fresh token, got %d", st)
	}
	var perms struct {
		Role string `json:"role"`
	}
	mustDecode(t, body, &perms)
	if perms.Role != "VET" {
		t.Fatalf("expected VET permissions, got %s", string(body))
	}

	// el admin no puede degradarse a sí mismo
	st, _ = doReq(t, ts.URL, "PATCH", "/users/"+admin.UserID, admin.Token, map[string]any{"role": "USER"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 on admin self-demotion, got %d", st)
	}
}

func TestHTTP_DebugHeaders(t *testing.T) {
	off := newServer(t, false)
	st, _ := debugReq(t, off.URL, "GET", "/pets", "dev-1", "ADMIN")
	if st != http.StatusUnauthorized {
		t.Fatalf("debug headers must be ignored when disabled, got %d", st)
	}

	on := newServer(t, true)
	st, body := debugReq(t, on.URL, "POST", "/pets", "dev-1", "", map[string]any{"name": "Milo", "type": "Perro"})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 with debug identity, got %d body=%s", st, string(body))
	}
	st, _ = debugReq(t, on.URL, "POST", "/pets", "dev-2", "vet", map[string]any{"name": "Milo", "type": "Perro"})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for debug vet, got %d", st)
	}
}

func TestHTTP_HealthMetricsSwagger(t *testing.T) {
	ts := newServer(t, false)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %s", st, string(body))
	}

	register(t, ts.URL, "Ana", "ana@example.com", "")

	st, body = doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK {
		t.Fatalf("metrics: %d", st)
	}
	for _, want := range []string{"petcare_http_requests_total", `petcare_auth_attempts_total{op="register",outcome="ok"} 1`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}

	st, _ = doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK {
		t.Fatalf("swagger doc: %d", st)
	}
}

func register(t *testing.T, baseURL, name, email, role string) session {
	t.Helper()
	payload := map[string]any{"name": name, "email": email, "password": "secret1"}
	if role != "" {
		payload["role"] = role
	}
	st, body := doReq(t, baseURL, "POST", "/auth/register", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", email, st, string(body))
	}
	return decodeSession(t, body)
}

func login(t *testing.T, baseURL, email, password string) session {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/auth/login", "", map[string]any{"email": email, "password": password})
	if st != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d body=%s", email, st, string(body))
	}
	return decodeSession(t, body)
}

func decodeSession(t *testing.T, body []byte) session {
	t.Helper()
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	mustDecode(t, body, &out)
	if out.TokenType != "Bearer" {
		t.Fatalf("unexpected token_type %q", out.TokenType)
	}
	return session{UserID: out.User.ID, Token: out.Token}
}

func createPet(t *testing.T, baseURL, token string, payload map[string]any) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/pets", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("create pet: expected 201, got %d body=%s", st, string(body))
	}
	return decodeID(t, body)
}

func createVaccine(t *testing.T, baseURL, token string, payload map[string]any) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/vaccines", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("create vaccine: expected 201, got %d body=%s", st, string(body))
	}
	return decodeID(t, body)
}

func decodeID(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	mustDecode(t, body, &out)
	if out.ID == "" {
		t.Fatalf("missing id in %s", string(body))
	}
	return out.ID
}

func countItems(t *testing.T, body []byte) int {
	t.Helper()
	var items []json.RawMessage
	mustDecode(t, body, &items)
	return len(items)
}

func mustDecode(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return send(t, baseURL, method, path, headers, body)
}

func debugReq(t *testing.T, baseURL, method, path, userID, role string, body ...any) (int, []byte) {
	t.Helper()
	headers := map[string]string{"X-Debug-User-ID": userID}
	if role != "" {
		headers["X-Debug-User-Role"] = role
	}
	var payload any
	if len(body) > 0 {
		payload = body[0]
	}
	return send(t, baseURL, method, path, headers, payload)
}

func send(t *testing.T, baseURL, method, path string, headers map[string]string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
