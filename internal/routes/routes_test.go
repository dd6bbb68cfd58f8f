package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/consultacpf/consulta-clientes/internal/account"
	"github.com/consultacpf/consulta-clientes/internal/config"
	"github.com/consultacpf/consulta-clientes/internal/logging"
	"github.com/consultacpf/consulta-clientes/internal/store/storetest"
)

const testCSV = "nome;cpf;telefone\nAna;123.456.789-09;(11) 99999-9999\nBia;1.2E10;\n"

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	db := storetest.NewSQLite(t)
	logger := logging.Discard()
	if _, err := account.NewService(account.NewSQLRepository(db), logger).EnsureAdmin(context.Background(), "admin", "segredo1"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	cfg := config.Config{
		AppEnv:                 "test",
		JWTSecret:              "access",
		RefreshSecret:          "refresh",
		AccessTokenTTL:         time.Minute,
		RefreshTokenTTL:        time.Hour,
		IdempotencyTTL:         time.Minute,
		LoginAttemptsPerMinute: 20,
	}
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Store: db, Cache: cache, Logger: logger}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		body, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", req.URL.Path, err, body)
		}
	}
	return resp.StatusCode
}

func jsonRequest(method, path, token, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func uploadRequest(t *testing.T, token, filename, content, key string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	var out struct {
		AccessToken string `json:"access_token"`
	}
	status := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"`+username+`","password":"`+password+`"}`), &out)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", username, status)
	}
	return out.AccessToken
}

func TestImportThenLookup(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "segredo1")

	var result struct {
		New     int    `json:"new"`
		Updated int    `json:"updated"`
		Message string `json:"message"`
	}
	if status := do(t, app, uploadRequest(t, token, "clientes.csv", testCSV, "k1"), &result); status != http.StatusOK {
		t.Fatalf("import: status %d", status)
	}
	if result.New != 2 || result.Updated != 0 {
		t.Fatalf("unexpected import result %+v", result)
	}

	var match struct {
		Found      bool     `json:"found"`
		Name       string   `json:"name"`
		NationalID string   `json:"national_id"`
		Phones     []string `json:"phones"`
	}
	status := do(t, app, jsonRequest(http.MethodPost, "/api/v1/lookup", token, `{"query":"999999999"}`), &match)
	if status != http.StatusOK {
		t.Fatalf("lookup: status %d", status)
	}
	if !match.Found || match.Name != "Ana" || match.NationalID != "12345678909" {
		t.Fatalf("unexpected lookup %+v", match)
	}

	var stats struct {
		Customers int64  `json:"customers"`
		Phones    int64  `json:"phones"`
		Engine    string `json:"engine"`
	}
	if status := do(t, app, jsonRequest(http.MethodGet, "/api/v1/stats", token, ""), &stats); status != http.StatusOK {
		t.Fatalf("stats: status %d", status)
	}
	if stats.Customers != 2 || stats.Phones != 1 || stats.Engine != "sqlite" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestImportRejectsBadUploads(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "segredo1")

	if status := do(t, app, uploadRequest(t, token, "clientes.txt", testCSV, "k1"), nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-csv upload, got %d", status)
	}
	if status := do(t, app, uploadRequest(t, token, "clientes.csv", "nome,cpf\nAna,1\n", "k2"), nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for comma separated file, got %d", status)
	}
	if status := do(t, app, uploadRequest(t, token, "clientes.csv", testCSV, ""), nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", status)
	}
}

func TestRegularUserCannotImport(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, "admin", "segredo1")

	status := do(t, app, jsonRequest(http.MethodPost, "/api/v1/accounts", adminToken,
		`{"username":"operador","password":"senha123"}`), nil)
	if status != http.StatusCreated {
		t.Fatalf("create account: status %d", status)
	}

	userToken := login(t, app, "operador", "senha123")
	if status := do(t, app, uploadRequest(t, userToken, "clientes.csv", testCSV, "k1"), nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for user import, got %d", status)
	}
	if status := do(t, app, jsonRequest(http.MethodGet, "/api/v1/accounts", userToken, ""), nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for user account listing, got %d", status)
	}

	var miss struct {
		Found   bool   `json:"found"`
		Message string `json:"message"`
	}
	status = do(t, app, jsonRequest(http.MethodPost, "/api/v1/lookup", userToken, `{"query":"123"}`), &miss)
	if status != http.StatusOK || miss.Found {
		t.Fatalf("expected a not-found lookup for a regular user, got %d %+v", status, miss)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "segredo1")

	if status := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/logout", token, ""), nil); status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	if status := do(t, app, jsonRequest(http.MethodGet, "/api/v1/me", token, ""), nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	app := setupApp(t)
	if status := do(t, app, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil); status != http.StatusOK {
		t.Fatalf("healthz: status %d", status)
	}
}
