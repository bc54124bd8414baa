package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/gate"
	"keygate-hq/keygate/pkg/quota"
	"keygate-hq/keygate/pkg/registry"
	"keygate-hq/keygate/pkg/usage"
)

// syncRecorder writes usage records synchronously so tests can assert on
// storage right after a request.
type syncRecorder struct {
	storage usage.Storage
	counter int
}

func (s *syncRecorder) Record(keyID, clientID, endpoint string, statusCode int) {
	s.counter++
	s.storage.Store(context.Background(), &usage.Record{
		ID:         fmt.Sprintf("rec-%d", s.counter),
		KeyID:      keyID,
		ClientID:   clientID,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	})
}

type testEnv struct {
	registry *registry.Registry
	usage    *usage.MemoryStorage
	server   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := registry.NewRegistry(registry.NewMemoryStore())
	ledger := quota.NewMemoryLedger()
	g := gate.New(reg, ledger, nil)
	middleware := gate.NewMiddleware(g, nil)
	usageStorage := usage.NewMemoryStorage()

	cfg := &config.ServerConfig{
		ListenAddress:      "127.0.0.1:0",
		AdminRatePerSecond: 1000,
		AdminBurst:         1000,
	}

	srv := NewServer(cfg, reg, middleware, &syncRecorder{storage: usageStorage}, usageStorage)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{registry: reg, usage: usageStorage, server: ts}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func (e *testEnv) provisionKey(t *testing.T, dailyLimit int64) (clientID, rawKey string) {
	t.Helper()

	resp := e.postJSON(t, "/admin/clients", map[string]any{
		"name":  "Acme",
		"email": "ops@acme.test",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating client, got %d", resp.StatusCode)
	}
	var client struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &client)

	resp = e.postJSON(t, "/admin/keys", map[string]any{
		"client_id":   client.ID,
		"daily_limit": dailyLimit,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating key, got %d", resp.StatusCode)
	}
	var key struct {
		APIKey string `json:"api_key"`
	}
	decodeJSON(t, resp, &key)
	if key.APIKey == "" {
		t.Fatal("Expected raw API key in provisioning response")
	}

	return client.ID, key.APIKey
}

func TestServer_ProtectedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	clientID, rawKey := env.provisionKey(t, 100)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/data", nil)
	req.Header.Set("X-API-Key", rawKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		ClientID string `json:"client_id"`
	}
	decodeJSON(t, resp, &body)
	if body.ClientID != clientID {
		t.Errorf("Expected client_id %q, got %q", clientID, body.ClientID)
	}
}

func TestServer_ProtectedEndpointDenials(t *testing.T) {
	env := newTestEnv(t)
	env.provisionKey(t, 100)

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantReason string
	}{
		{"missing credential", "", http.StatusUnauthorized, "credential_missing"},
		{"unknown credential", "not-a-real-key", http.StatusForbidden, "credential_invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/data", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			var body struct {
				Error string `json:"error"`
			}
			decodeJSON(t, resp, &body)
			if body.Error != tt.wantReason {
				t.Errorf("Expected reason %q, got %q", tt.wantReason, body.Error)
			}
		})
	}
}

func TestServer_QuotaExhaustionOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, rawKey := env.provisionKey(t, 2)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/data", nil)
		req.Header.Set("X-API-Key", rawKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	want := []int{200, 200, 429}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("Request %d: expected %d, got %d", i, want[i], statuses[i])
		}
	}
}

func TestServer_DisableKey(t *testing.T) {
	env := newTestEnv(t)
	_, rawKey := env.provisionKey(t, 100)

	resp := env.postJSON(t, "/admin/keys/disable", map[string]string{"api_key": rawKey})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 disabling key, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/data", nil)
	req.Header.Set("X-API-Key", rawKey)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for disabled key, got %d", resp2.StatusCode)
	}
}

func TestServer_DisableUnknownKey(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/admin/keys/disable", map[string]string{"api_key": "unknown"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown key, got %d", resp.StatusCode)
	}
}

func TestServer_CreateKeyValidation(t *testing.T) {
	env := newTestEnv(t)
	clientID, _ := env.provisionKey(t, 100)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"zero limit", map[string]any{"client_id": clientID, "daily_limit": 0}, http.StatusBadRequest},
		{"negative limit", map[string]any{"client_id": clientID, "daily_limit": -5}, http.StatusBadRequest},
		{"unknown client", map[string]any{"client_id": "nobody", "daily_limit": 10}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postJSON(t, "/admin/keys", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestServer_UsageReport(t *testing.T) {
	env := newTestEnv(t)
	clientID, rawKey := env.provisionKey(t, 100)

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/data", nil)
		req.Header.Set("X-API-Key", rawKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(env.server.URL + "/admin/usage/" + clientID)
	if err != nil {
		t.Fatalf("Usage request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var report struct {
		ClientID string `json:"client_id"`
		Usage    []struct {
			Endpoint string `json:"endpoint"`
			Requests int64  `json:"requests"`
		} `json:"usage"`
	}
	decodeJSON(t, resp, &report)

	if report.ClientID != clientID {
		t.Errorf("Expected client_id %q, got %q", clientID, report.ClientID)
	}
	if len(report.Usage) != 1 || report.Usage[0].Endpoint != "/api/data" || report.Usage[0].Requests != 3 {
		t.Errorf("Unexpected usage report: %+v", report.Usage)
	}
}

func TestServer_UsageReportUnknownClient(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/admin/usage/nobody")
	if err != nil {
		t.Fatalf("Usage request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_Healthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_RequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "test-request-id")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "test-request-id" {
		t.Errorf("Expected request ID echoed back, got %q", got)
	}
}
