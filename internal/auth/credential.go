package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskdeck/internal/repository"
)

// CredentialStore はローカル認証情報（ハッシュ済みパスワード）を管理する。
// パスワードはbcryptでソルト付きハッシュ化され、平文が復元されることはない。
// IdentityModeがfederatedのユーザーでもローカル認証情報は常に保持される。
type CredentialStore struct {
	userRepo repository.UserRepository
	cost     int
}

// NewCredentialStore はCredentialStoreを生成する。
// costが0以下の場合はbcrypt.DefaultCostを使用する。
func NewCredentialStore(userRepo repository.UserRepository, cost int) *CredentialStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{
		userRepo: userRepo,
		cost:     cost,
	}
}

// Hash は平文パスワードをハッシュ化して返す。
// 登録時のユーザーレコード作成に使用し、レコードとハッシュを単一INSERTで永続化する。
func (s *CredentialStore) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Store は指定ユーザーのローカル認証情報をハッシュ化して保存する。
func (s *CredentialStore) Store(ctx context.Context, userID, plaintext string) error {
	hash, err := s.Hash(plaintext)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Verify は指定ユーザーのローカル認証情報を検証する。
// パスワード不一致は通常の false であり、エラーではない。
// エラーを返すのはストアI/O障害の場合のみ。
func (s *CredentialStore) Verify(ctx context.Context, userID, plaintext string) (bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load credential: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return VerifyHash(user.PasswordHash, plaintext), nil
}

// VerifyHash はハッシュと平文パスワードを照合する。
// 照合はbcryptの定数時間比較で行われる。
func VerifyHash(hash, plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) && err == nil
}
