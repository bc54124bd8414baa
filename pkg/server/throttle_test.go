package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPThrottle_LimitsPerIP(t *testing.T) {
	throttle := newIPThrottle(1, 2)

	allowed := 0
	for i := 0; i < 5; i++ {
		if throttle.allow("10.0.0.1:1234") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("Expected 2 allowed requests from burst, got %d", allowed)
	}

	// A different address has its own bucket.
	if !throttle.allow("10.0.0.2:1234") {
		t.Error("Expected fresh address to be allowed")
	}
}

func TestIPThrottle_Middleware(t *testing.T) {
	throttle := newIPThrottle(1, 1)
	handler := throttle.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/clients", nil)
	req.RemoteAddr = "10.0.0.3:5555"
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Errorf("Expected first request allowed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected second request throttled, got %d", second.Code)
	}
}
