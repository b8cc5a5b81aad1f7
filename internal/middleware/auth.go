// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/taskdeck/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストにセッションクレームを格納するためのキー。
var claimsContextKey = contextKey("session_claims")

// TokenVerifier はベアラートークンの検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (*model.SessionClaims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証するミドルウェアを返す。
// 検証済みのクレームをリクエストコンテキストに注入する。
// ヘッダーが無い場合は401、トークンが無効または期限切れの場合は403を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取得
			token := bearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "TOKEN_REQUIRED",
					Message:  "アクセストークンが必要です。",
					Category: "auth",
					Action:   "ログインしてトークンを取得してください。",
				})
				return
			}

			// 2. トークンの検証
			claims, err := verifier.Verify(token)
			if err != nil {
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     "TOKEN_INVALID",
					Message:  "アクセストークンが無効または期限切れです。",
					Category: "auth",
					Action:   "再度ログインしてください。",
				})
				return
			}

			// 3. 検証済みクレームをコンテキストに注入
			ctx := ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// ヘッダーが無い、または形式が不正な場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClaimsFromContext はリクエストコンテキストからセッションクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.SessionClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.SessionClaims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("session claims not found in context")
	}
	return claims, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ContextWithClaims はコンテキストにセッションクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
