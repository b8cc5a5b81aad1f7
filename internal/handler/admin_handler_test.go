package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockQueueInspector struct {
	peekFn func(ctx context.Context, limit int) ([]json.RawMessage, error)
	lenFn  func(ctx context.Context) (int64, error)
}

func (m *mockQueueInspector) Peek(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if m.peekFn != nil {
		return m.peekFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockQueueInspector) Len(ctx context.Context) (int64, error) {
	if m.lenFn != nil {
		return m.lenFn(ctx)
	}
	return 0, nil
}

func TestAdminHandler_QueueMessages_ReturnsPeekedMessages(t *testing.T) {
	var gotLimit int
	inspector := &mockQueueInspector{
		peekFn: func(ctx context.Context, limit int) ([]json.RawMessage, error) {
			gotLimit = limit
			return []json.RawMessage{
				json.RawMessage(`{"type":"task.created"}`),
				json.RawMessage(`{"type":"user.login"}`),
			}, nil
		},
		lenFn: func(ctx context.Context) (int64, error) { return 2, nil },
	}
	h := NewAdminHandler(inspector)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue-messages", nil)
	w := httptest.NewRecorder()

	h.QueueMessages(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotLimit != defaultQueuePeekLimit {
		t.Errorf("limit = %d, want default %d", gotLimit, defaultQueuePeekLimit)
	}

	var got queueMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.QueueLength != 2 || len(got.Messages) != 2 {
		t.Errorf("response = %+v", got)
	}
}

func TestAdminHandler_QueueMessages_LimitQueryParam(t *testing.T) {
	var gotLimit int
	inspector := &mockQueueInspector{
		peekFn: func(ctx context.Context, limit int) ([]json.RawMessage, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := NewAdminHandler(inspector)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue-messages?limit=25", nil)
	w := httptest.NewRecorder()

	h.QueueMessages(w, req)

	if gotLimit != 25 {
		t.Errorf("limit = %d, want 25", gotLimit)
	}
}

func TestAdminHandler_QueueMessages_LimitCappedAtMax(t *testing.T) {
	var gotLimit int
	inspector := &mockQueueInspector{
		peekFn: func(ctx context.Context, limit int) ([]json.RawMessage, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := NewAdminHandler(inspector)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue-messages?limit=5000", nil)
	w := httptest.NewRecorder()

	h.QueueMessages(w, req)

	if gotLimit != maxQueuePeekLimit {
		t.Errorf("limit = %d, want capped %d", gotLimit, maxQueuePeekLimit)
	}
}

func TestAdminHandler_QueueMessages_InvalidLimitReturns400(t *testing.T) {
	h := NewAdminHandler(&mockQueueInspector{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue-messages?limit=abc", nil)
	w := httptest.NewRecorder()

	h.QueueMessages(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAdminHandler_QueueMessages_NilInspectorReturns503(t *testing.T) {
	h := NewAdminHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue-messages", nil)
	w := httptest.NewRecorder()

	h.QueueMessages(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}
