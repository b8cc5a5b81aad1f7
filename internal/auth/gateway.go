package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProviderError は外部IDプロバイダ呼び出しの失敗を表す。
// クォータ超過・接続障害・認証失敗・重複登録など原因を問わず同一のエラー族に
// 畳み込まれ、呼び出し側はこの層で原因を区別しない（区別はローカルフォール
// バックで行う）。サービス層で必ず吸収され、リクエスト境界には到達しない。
type ProviderError struct {
	Op  string // 失敗した操作: "provision" または "authenticate"
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider %s failed: %v", e.Op, e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IdentityGateway は外部IDプロバイダへの操作インターフェース。
type IdentityGateway interface {
	// Provision は外部プロバイダにユーザーを作成し、恒久パスワードを設定する。
	// プロバイダのウェルカムメッセージ送信は抑止する。
	// あらゆる失敗は*ProviderErrorとして返り、致命的エラーにはならない。
	Provision(ctx context.Context, email, password string) error

	// Authenticate は管理者権限のパスワード認証フローを実行する。
	// 認証失敗とプロバイダ障害はこの層では区別されず、同一の*ProviderErrorを返す。
	Authenticate(ctx context.Context, email, password string) error
}

// GatewayConfig は外部IDプロバイダの接続設定。
type GatewayConfig struct {
	BaseURL  string // 未設定の場合、すべての操作は即座に*ProviderErrorを返す
	PoolID   string
	ClientID string
	APIKey   string
	Timeout  time.Duration

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// HTTPIdentityGateway は管理APIを持つ外部IDプロバイダへのHTTPクライアント。
// プロバイダ設定以外の状態は持たない。
type HTTPIdentityGateway struct {
	config GatewayConfig
	client *http.Client
}

// NewHTTPIdentityGateway はHTTPIdentityGatewayを生成する。
func NewHTTPIdentityGateway(config GatewayConfig) *HTTPIdentityGateway {
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPIdentityGateway{config: config, client: client}
}

// provisionRequest はユーザー作成リクエストのボディ。
type provisionRequest struct {
	Email           string `json:"email"`
	EmailVerified   bool   `json:"email_verified"`
	SuppressWelcome bool   `json:"suppress_welcome"`
}

// setPasswordRequest は恒久パスワード設定リクエストのボディ。
type setPasswordRequest struct {
	Password  string `json:"password"`
	Permanent bool   `json:"permanent"`
}

// authenticateRequest は管理者認証リクエストのボディ。
type authenticateRequest struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Provision は外部プロバイダにユーザーを作成し、恒久パスワードを設定する。
// ユーザー作成とパスワード設定の2段階で、どちらの失敗も*ProviderErrorになる。
func (g *HTTPIdentityGateway) Provision(ctx context.Context, email, password string) error {
	if g.config.BaseURL == "" {
		return &ProviderError{Op: "provision", Err: fmt.Errorf("identity provider is not configured")}
	}

	// 1. ユーザー作成（ウェルカムメッセージ抑止）
	createURL := fmt.Sprintf("%s/admin/pools/%s/users", g.config.BaseURL, g.config.PoolID)
	if err := g.post(ctx, createURL, provisionRequest{
		Email:           email,
		EmailVerified:   true,
		SuppressWelcome: true,
	}); err != nil {
		return &ProviderError{Op: "provision", Err: err}
	}

	// 2. 恒久パスワード設定
	passwordURL := fmt.Sprintf("%s/admin/pools/%s/users/%s/password", g.config.BaseURL, g.config.PoolID, email)
	if err := g.post(ctx, passwordURL, setPasswordRequest{
		Password:  password,
		Permanent: true,
	}); err != nil {
		return &ProviderError{Op: "provision", Err: err}
	}

	return nil
}

// Authenticate は管理者権限のパスワード認証フローを実行する。
func (g *HTTPIdentityGateway) Authenticate(ctx context.Context, email, password string) error {
	if g.config.BaseURL == "" {
		return &ProviderError{Op: "authenticate", Err: fmt.Errorf("identity provider is not configured")}
	}

	authURL := fmt.Sprintf("%s/admin/pools/%s/auth", g.config.BaseURL, g.config.PoolID)
	if err := g.post(ctx, authURL, authenticateRequest{
		ClientID: g.config.ClientID,
		Email:    email,
		Password: password,
	}); err != nil {
		return &ProviderError{Op: "authenticate", Err: err}
	}

	return nil
}

// post はJSONボディのPOSTリクエストを送信し、2xx以外をエラーとして返す。
func (g *HTTPIdentityGateway) post(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// compile-time interface check
var _ IdentityGateway = (*HTTPIdentityGateway)(nil)
