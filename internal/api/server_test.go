package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"perp-exec/internal/handoff"
	"perp-exec/internal/reconcile"
)

func testServer(store handoff.Store, statusFn func() reconcile.Status) *Server {
	return NewServer("alpha", nil, store, statusFn, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	s := testServer(handoff.NewMemoryStore(), nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetTargetNotFound(t *testing.T) {
	s := testServer(handoff.NewMemoryStore(), nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/target", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before first publish", w.Code)
	}
}

func TestGetTarget(t *testing.T) {
	store := handoff.NewMemoryStore()
	err := store.Publish(context.Background(), handoff.Target{
		Strategy: "alpha", Symbol: "BTCUSDT", Target: 1.5, ComputedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	s := testServer(store, nil)

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/target", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["target"] != 1.5 || body["symbol"] != "BTCUSDT" {
		t.Fatalf("body = %v", body)
	}
}

func TestGetStatus(t *testing.T) {
	s := testServer(handoff.NewMemoryStore(), func() reconcile.Status {
		return reconcile.Status{Symbol: "BTCUSDT", LastOutcome: "in_sync"}
	})
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Reconcile reconcile.Status `json:"reconcile"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reconcile.LastOutcome != "in_sync" {
		t.Fatalf("reconcile = %+v", body.Reconcile)
	}
}
