package server

import (
	"context"
	"testing"
	"time"

	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/gate"
	"keygate-hq/keygate/pkg/quota"
	"keygate-hq/keygate/pkg/registry"
)

func TestStart_ReturnsWhenContextCanceled(t *testing.T) {
	reg := registry.NewRegistry(registry.NewMemoryStore())
	g := gate.New(reg, quota.NewMemoryLedger(), nil)
	middleware := gate.NewMiddleware(g, nil)

	cfg := &config.ServerConfig{
		ListenAddress:      "127.0.0.1:0",
		ShutdownTimeout:    2 * time.Second,
		AdminRatePerSecond: 1000,
		AdminBurst:         1000,
	}
	srv := NewServer(cfg, reg, middleware, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	// Let the listener come up before canceling.
	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Fatal("server never reported running")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error after cancellation: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}

	if srv.IsRunning() {
		t.Error("Expected server to report not running after shutdown")
	}
}
