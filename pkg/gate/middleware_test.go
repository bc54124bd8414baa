package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"keygate-hq/keygate/pkg/quota"
	"keygate-hq/keygate/pkg/registry"
)

func newTestMiddleware(t *testing.T, dailyLimit int64) (*Middleware, string) {
	t.Helper()

	reg, _, raw := provision(t, dailyLimit)
	g := New(reg, quota.NewMemoryLedger(), nil)
	return NewMiddleware(g, nil), raw
}

// okHandler asserts the identity is present and replies 200.
func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			t.Error("Expected identity in request context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_MissingCredential(t *testing.T) {
	m, _ := newTestMiddleware(t, 10)
	handler := m.Handle(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body: %v", err)
	}
	if body["error"] != string(ReasonCredentialMissing) {
		t.Errorf("Expected credential_missing, got %s", body["error"])
	}
}

func TestMiddleware_InvalidCredential(t *testing.T) {
	m, _ := newTestMiddleware(t, 10)
	handler := m.Handle(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("X-API-Key", "bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestMiddleware_CredentialSources(t *testing.T) {
	m, raw := newTestMiddleware(t, 100)
	handler := m.Handle(okHandler(t))

	tests := []struct {
		name  string
		apply func(*http.Request)
	}{
		{"x-api-key header", func(r *http.Request) {
			r.Header.Set("X-API-Key", raw)
		}},
		{"authorization bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+raw)
		}},
		{"query param", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("api_key", raw)
			r.URL.RawQuery = q.Encode()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
			tt.apply(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMiddleware_WrongBearerScheme(t *testing.T) {
	m, raw := newTestMiddleware(t, 100)
	handler := m.Handle(okHandler(t))

	// A bare Authorization value without the Bearer scheme is not accepted
	// from that source.
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Authorization", raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_QuotaExhaustion(t *testing.T) {
	m, raw := newTestMiddleware(t, 1)
	handler := m.Handle(okHandler(t))

	first := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	first.Header.Set("X-API-Key", raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	second.Header.Set("X-API-Key", raw)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("Expected no identity in bare context")
	}
}

func TestContextWithIdentity_RoundTrip(t *testing.T) {
	identity := &registry.KeyIdentity{KeyID: "key-1", ClientID: "client-1"}
	ctx := ContextWithIdentity(context.Background(), identity)

	got, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("Expected identity in context")
	}
	if got.KeyID != "key-1" {
		t.Errorf("Expected key-1, got %s", got.KeyID)
	}
}
