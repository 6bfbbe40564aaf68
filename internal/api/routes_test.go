package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lay3rLabs/wavs-hats/internal/api"
	"github.com/Lay3rLabs/wavs-hats/internal/domain/run"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/eventbus"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/sqlite"
	pkgauth "github.com/Lay3rLabs/wavs-hats/pkg/auth"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, prompt string) (string, error) {
	return "echo: " + prompt, nil
}

func newTestRouter(t *testing.T, jwtSecret string) http.Handler {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp error = %v", err)
	}

	return api.NewRouter(api.Deps{
		Runner:    echoRunner{},
		Journal:   run.NewJournal(db),
		Bus:       eventbus.New(),
		Provider:  "ollama",
		Model:     "llama3.1",
		JWTSecret: jwtSecret,
	})
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusOK)
	}
	if body := rr.Body.String(); body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestRouter_PromptRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", bytes.NewBufferString(`{"prompt":"hello"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d; want %d; body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestRouter_RunsRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusOK)
	}
}

func TestRouter_HatsRouteAbsentWithoutReader(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/hats/0x000000000000000000000000000000000000beef", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d when no hat reader is configured", rr.Code, http.StatusNotFound)
	}
}

// ===== AUTH =====

func TestRouter_AuthRequiredWhenSecretConfigured(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "test-secret-key-32-chars-min!!!")

	// No token — rejected.
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d without token", rr.Code, http.StatusUnauthorized)
	}

	// Health stays public.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("health status = %d; want %d", rr.Code, http.StatusOK)
	}

	// Valid token — accepted.
	token, err := pkgauth.GenerateToken([]byte("test-secret-key-32-chars-min!!!"), "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d; want %d with valid token", rr.Code, http.StatusOK)
	}
}
