package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、セッショントークンを発行する。
	Register(ctx context.Context, username, email, password string) (*auth.RegisterResult, error)
	// Login は認証を行い、セッショントークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IdentityMode string `json:"identity_mode"`
}

// registerResponse はユーザー登録のAPIレスポンス。
type registerResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// loginResponse はログインのAPIレスポンス。
type loginResponse struct {
	Message     string       `json:"message"`
	Token       string       `json:"token"`
	LoginMethod string       `json:"login_method"`
	User        userResponse `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerResponse{
		Message: "ユーザー登録が完了しました。",
		Token:   result.Token,
		User:    toUserResponse(result.User),
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Message:     "ログインしました。",
		Token:       result.Token,
		LoginMethod: string(result.Method),
		User:        toUserResponse(result.User),
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
// パスワードハッシュはレスポンスに含めない。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		IdentityMode: string(user.IdentityMode),
	}
}
