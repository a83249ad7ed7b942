package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
)

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := ReadyCheck{Name: "registry", Check: func(context.Context) error { return nil }}
	down := ReadyCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	rec := serve(HealthReady(cfg, nil, ok), http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = serve(HealthReady(cfg, nil, ok, down), http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"connection refused"`) {
		t.Fatalf("expected failed check in details: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"registry"`) {
		t.Fatalf("passing checks must not be reported: %s", rec.Body.String())
	}
}
