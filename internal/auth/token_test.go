package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

var testUser = &model.User{
	ID:       "user-1",
	Username: "alice",
	Email:    "a@x.com",
}

// 発行したトークンの検証でクレームが復元されることを検証
func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "a@x.com")
	}
}

// 有効期限が発行時刻から24時間であることを検証
func TestTokenIssuer_Expiry24Hours(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0) // 0はデフォルトの24時間

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt)
	if ttl != 24*time.Hour {
		t.Errorf("token TTL = %v, want %v", ttl, 24*time.Hour)
	}
}

// 期限切れトークンが不透明な単一エラーで拒否されることを検証
func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Hour)

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = issuer.Verify(token)
	if err != ErrInvalidToken {
		t.Errorf("Verify error = %v, want ErrInvalidToken", err)
	}
}

// 改ざんされたトークンが拒否されることを検証
func TestTokenIssuer_Verify_Tampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// 署名部分を破壊する
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + "AAAAAAAAAAAAAAAAAAAAAA"

	_, err = issuer.Verify(tampered)
	if err != ErrInvalidToken {
		t.Errorf("Verify error = %v, want ErrInvalidToken", err)
	}
}

// 異なる秘密鍵で発行されたトークンが拒否されることを検証
func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)
	other := NewTokenIssuer("other-secret", 24*time.Hour)

	token, err := other.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = issuer.Verify(token)
	if err != ErrInvalidToken {
		t.Errorf("Verify error = %v, want ErrInvalidToken", err)
	}
}

// 形式不正の文字列が拒否されることを検証
func TestTokenIssuer_Verify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(raw); err != ErrInvalidToken {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", raw, err)
		}
	}
}
