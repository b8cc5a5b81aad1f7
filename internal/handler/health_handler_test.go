package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error { return m.err }
func (m *mockPinger) Ping(ctx context.Context) error        { return m.err }

func TestHealthHandler_AllHealthy_Returns200(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != "ok" || got.Database != "ok" || got.EventSink != "ok" {
		t.Errorf("response = %+v", got)
	}
	if got.IdentityProvider != "configured" {
		t.Errorf("identity_provider = %q, want configured", got.IdentityProvider)
	}
}

func TestHealthHandler_DatabaseDown_Returns500(t *testing.T) {
	h := NewHealthHandler(&mockPinger{err: errors.New("connection refused")}, &mockPinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Database != "error" {
		t.Errorf("database = %q, want error", got.Database)
	}
}

// イベントシンク障害ではサービス自体は稼働扱いで200を返す
func TestHealthHandler_EventSinkDown_Returns200Degraded(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{err: errors.New("redis down")}, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != "degraded" || got.EventSink != "error" {
		t.Errorf("response = %+v", got)
	}
}

func TestHealthHandler_IdPUnconfigured_Reported(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{}, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	var got healthResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.IdentityProvider != "unconfigured" {
		t.Errorf("identity_provider = %q, want unconfigured", got.IdentityProvider)
	}
	// IDプロバイダ未設定はローカルフォールバックで動作するため稼働扱い
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}
