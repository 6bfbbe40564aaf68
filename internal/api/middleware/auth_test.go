// Tests for the Bearer JWT auth middleware.
// Covers: token absent, invalid, expired, valid — and context injection.
package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lay3rLabs/wavs-hats/internal/api/ctxkeys"
	"github.com/Lay3rLabs/wavs-hats/internal/api/middleware"
	pkgauth "github.com/Lay3rLabs/wavs-hats/pkg/auth"
)

var testSecret = []byte("test-secret-key-32-chars-min!!!")

// ===== HELPERS =====

// nextHandler returns an http.Handler that sets called=true and records the context.
func nextHandler(called *bool, capturedCtx *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if capturedCtx != nil {
			*capturedCtx = r.Context()
		}
		w.WriteHeader(http.StatusOK)
	})
}

// makeRequest creates a GET request with an optional Authorization header.
func makeRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ===== TESTS: TOKEN ABSENT =====

func TestAuth_NoToken(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(""))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called when token is missing")
	}
}

func TestAuth_EmptyBearerValue(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for an empty bearer value")
	}
}

func TestAuth_WrongScheme(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for a non-Bearer scheme")
	}
}

// ===== TESTS: TOKEN INVALID =====

func TestAuth_GarbageToken(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("not-a-jwt"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for a garbage token")
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	token, err := pkgauth.GenerateToken(testSecret, "operator", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(token))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for an expired token")
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := pkgauth.GenerateToken([]byte("some-other-secret-entirely!!!!!!"), "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	called := false
	handler := middleware.Auth(testSecret)(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(token))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for a token signed with another secret")
	}
}

// ===== TESTS: TOKEN VALID =====

func TestAuth_ValidToken_InjectsSubject(t *testing.T) {
	t.Parallel()

	token, err := pkgauth.GenerateToken(testSecret, "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	called := false
	var capturedCtx context.Context
	handler := middleware.Auth(testSecret)(nextHandler(&called, &capturedCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(token))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}
	if !called {
		t.Fatal("next handler should be called for a valid token")
	}

	subject, ok := capturedCtx.Value(ctxkeys.Subject).(string)
	if !ok || subject != "operator" {
		t.Errorf("expected subject 'operator' in context, got %v", capturedCtx.Value(ctxkeys.Subject))
	}
}
