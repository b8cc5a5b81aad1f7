package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/model"
)

// --- モック定義 ---

type mockTokenVerifier struct {
	verifyFn func(token string) (*model.SessionClaims, error)
}

func (m *mockTokenVerifier) Verify(token string) (*model.SessionClaims, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return nil, auth.ErrInvalidToken
}

func validClaims() *model.SessionClaims {
	return &model.SessionClaims{
		UserID:    "user-123",
		Username:  "hitoshi",
		Email:     "hitoshi@example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

// --- テスト ---

func TestAuthMiddleware_ValidToken_InjectsClaims(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*model.SessionClaims, error) {
			if token == "valid-token" {
				return validClaims(), nil
			}
			return nil, auth.ErrInvalidToken
		},
	}

	mw := NewAuthMiddleware(verifier)

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestAuthMiddleware_NoAuthorizationHeader_Returns401(t *testing.T) {
	verifier := &mockTokenVerifier{}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MalformedHeader_Returns401(t *testing.T) {
	verifier := &mockTokenVerifier{}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	// Bearerスキームでないヘッダーは未提示と同じ扱い
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_Returns403(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*model.SessionClaims, error) {
			return nil, auth.ErrInvalidToken
		},
	}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer expired-or-garbage")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestAuthMiddleware_BearerCaseInsensitive(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*model.SessionClaims, error) {
			return validClaims(), nil
		},
	}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestClaimsFromContext_MissingClaims_ReturnsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	if _, err := ClaimsFromContext(req.Context()); err == nil {
		t.Error("expected error for context without claims")
	}
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for context without claims")
	}
}

func TestContextWithClaims_RoundTrip(t *testing.T) {
	claims := validClaims()
	ctx := ContextWithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), claims)

	got, err := ClaimsFromContext(ctx)
	if err != nil {
		t.Fatalf("ClaimsFromContext returned error: %v", err)
	}
	if got.UserID != claims.UserID || got.Email != claims.Email {
		t.Errorf("claims = %+v, want %+v", got, claims)
	}
}
