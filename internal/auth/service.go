// Package auth は登録・ログインのオーケストレーションと、
// ローカル認証・外部IDプロバイダ連携・セッショントークン発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// LoginMethod はログインに成功した認証経路を表す。
type LoginMethod string

const (
	// LoginMethodLocal はローカル認証情報による認証を示す。
	LoginMethodLocal LoginMethod = "local"
	// LoginMethodFederated は外部IDプロバイダによる認証を示す。
	LoginMethodFederated LoginMethod = "federated"
)

// minPasswordLength は登録時に要求するパスワードの最低文字数。
const minPasswordLength = 6

// EventDispatcher は認証サービスが発行するイベントの送信インターフェース。
// 両操作ともベストエフォートで、失敗は内部で吸収され呼び出し側には伝播しない。
type EventDispatcher interface {
	Notify(ctx context.Context, event *model.Event, subject string)
	Enqueue(ctx context.Context, event *model.Event)
}

// Metrics は認証メトリクスの記録インターフェース。
type Metrics interface {
	RecordRegistration(mode string)
	RecordLogin(method string)
}

// RegisterResult は登録処理の結果。
type RegisterResult struct {
	Token string
	User  *model.User
}

// LoginResult はログイン処理の結果。
// Methodには実際に認証が成功した経路が入る。
type LoginResult struct {
	Token  string
	User   *model.User
	Method LoginMethod
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo   repository.UserRepository
	creds      *CredentialStore
	gateway    IdentityGateway
	tokens     *TokenIssuer
	dispatcher EventDispatcher
	metrics    Metrics
}

// NewService はServiceを生成する。
// metricsはnilを許容する。
func NewService(
	userRepo repository.UserRepository,
	creds *CredentialStore,
	gateway IdentityGateway,
	tokens *TokenIssuer,
	dispatcher EventDispatcher,
	metrics Metrics,
) *Service {
	return &Service{
		userRepo:   userRepo,
		creds:      creds,
		gateway:    gateway,
		tokens:     tokens,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
//
// 外部IDプロバイダへのプロビジョニングを試行し、成否をIdentityModeとして記録する。
// プロビジョニング失敗は登録を中断しない。IdentityModeに関わらずローカル認証情報は
// 必ずハッシュ化して保存するため、プロバイダ障害時もローカル認証が維持される。
func (s *Service) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	// 1. 入力検証
	if username == "" || email == "" || password == "" {
		return nil, model.NewValidationError("ユーザー名・メールアドレス・パスワードは必須です")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError()
	}

	// 2. 重複チェック（競合によるすり抜けはINSERT時の一意制約違反で検出される）
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.NewDuplicateUserError()
	}

	// 3. 外部IDプロバイダへのプロビジョニング試行
	mode := model.IdentityModeFederated
	if err := s.gateway.Provision(ctx, email, password); err != nil {
		mode = model.IdentityModeLocal
		slog.Warn("identity provider provisioning failed, falling back to local-only",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}

	// 4. ローカル認証情報のハッシュ化（プロビジョニングの成否に関わらず必ず行う）
	hash, err := s.creds.Hash(password)
	if err != nil {
		return nil, err
	}

	// 5. ユーザーレコードの永続化
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IdentityMode: mode,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. セッショントークン発行
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	// 7. イベント発行（ベストエフォート）
	event := model.NewEvent(model.EventUserRegistered)
	event.UserID = user.ID
	event.Username = username
	event.Email = email
	s.dispatcher.Notify(ctx, event, "新規ユーザー登録")
	s.dispatcher.Enqueue(ctx, event)

	if s.metrics != nil {
		s.metrics.RecordRegistration(string(mode))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", username),
		slog.String("identity_mode", string(mode)),
	)

	return &RegisterResult{Token: token, User: user}, nil
}

// Login はユーザーを認証し、セッショントークンを発行する。
//
// IdentityModeがfederatedの場合はまず外部IDプロバイダでの認証を試行する。
// プロバイダでの失敗（パスワード不一致・プロバイダ障害のいずれも）は即時拒否とせず、
// ローカル認証情報の検証にフォールバックする。外部プロバイダの障害がログイン全体の
// 障害に波及しないための契約であり、両経路のパスワード乖離は許容される。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	// 1. 入力検証
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です")
	}

	// 2. ユーザー検索（存在有無は外部に漏らさない）
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. federatedユーザーは外部IDプロバイダでの認証を試行
	method := LoginMethodLocal
	if user.IdentityMode == model.IdentityModeFederated {
		if err := s.gateway.Authenticate(ctx, email, password); err == nil {
			method = LoginMethodFederated
		} else {
			slog.Warn("federated authentication failed, falling back to local",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	// 4. 未認証の場合はローカル認証情報を検証
	if method != LoginMethodFederated {
		if !VerifyHash(user.PasswordHash, password) {
			return nil, model.NewInvalidCredentialsError()
		}
	}

	// 5. セッショントークン発行（経路によらず同一のクレーム構成）
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	// 6. イベント発行（ベストエフォート）
	event := model.NewEvent(model.EventUserLogin)
	event.UserID = user.ID
	event.Username = user.Username
	event.Email = email
	event.Method = string(method)
	s.dispatcher.Enqueue(ctx, event)

	if s.metrics != nil {
		s.metrics.RecordLogin(string(method))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", string(method)),
	)

	return &LoginResult{Token: token, User: user, Method: method}, nil
}
