package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ErrInvalidToken はトークン検証失敗を表す。
// 署名不一致・期限切れ・形式不正のいずれであってもこのエラーのみを返し、
// どの検証に失敗したかは外部に漏らさない。
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer はHMAC-SHA256署名のセッショントークンを発行・検証する。
// クレームと秘密鍵のみから決定されるステートレスなコンポーネントで、
// トークン自体は永続化されない。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer はTokenIssuerを生成する。
// ttlが0以下の場合は24時間を使用する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// tokenClaims はJWTに埋め込むクレームの内部表現。
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Issue は指定ユーザーのセッショントークンを発行する。
// 有効期限は発行時刻から固定のTTL（既定24時間）。
func (i *TokenIssuer) Issue(user *model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 署名不一致・期限切れ・アルゴリズム不一致はすべてErrInvalidTokenに畳み込まれる。
// HMACの署名照合は定数時間比較で行われる。
func (i *TokenIssuer) Verify(raw string) (*model.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.SessionClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
