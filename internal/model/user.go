// Package model はドメインモデルを定義する。
package model

import "time"

// IdentityMode はユーザーの認証経路を表す。
// 登録時に外部IDプロバイダへのプロビジョニングが成功したかどうかで決まり、
// 以後変更されない。
type IdentityMode string

const (
	// IdentityModeLocal はローカル認証のみのユーザーを示す。
	IdentityModeLocal IdentityMode = "local"
	// IdentityModeFederated は外部IDプロバイダにも登録済みのユーザーを示す。
	// federatedであってもローカル認証情報は常に保持される。
	IdentityModeFederated IdentityMode = "federated"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはIdentityModeに関わらず常に設定される。
// 外部プロバイダ側とローカル側のパスワードは同期されず、乖離しうる。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IdentityMode IdentityMode
	CreatedAt    time.Time
}

// SessionClaims はセッショントークンに埋め込まれるクレーム。
// トークン自体は永続化されない。
type SessionClaims struct {
	UserID    string
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
