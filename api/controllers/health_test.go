package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/payments-service/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Payments-Env") != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	tests := []struct {
		name   string
		db     Pinger
		redis  Pinger
		status int
		checks map[string]string
	}{
		{"all up", stubPinger{}, stubPinger{}, http.StatusOK, map[string]string{"database": "up", "redis": "up"}},
		{"redis disabled", stubPinger{}, nil, http.StatusOK, map[string]string{"database": "up"}},
		{"database down", stubPinger{err: errors.New("refused")}, stubPinger{}, http.StatusServiceUnavailable, map[string]string{"database": "down", "redis": "up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthReady(cfg, nil, tt.db, tt.redis).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d got %d", tt.status, rec.Code)
			}
			var body healthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Checks) != len(tt.checks) {
				t.Fatalf("unexpected checks %v", body.Checks)
			}
			for k, v := range tt.checks {
				if body.Checks[k] != v {
					t.Fatalf("check %s: expected %s got %s", k, v, body.Checks[k])
				}
			}
		})
	}
}
