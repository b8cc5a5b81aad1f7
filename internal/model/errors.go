package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodeTitleRequired      = "TITLE_REQUIRED"
	ErrCodeInvalidPriority    = "INVALID_PRIORITY"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
)

// NewValidationError は入力不備のエラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewPasswordTooShortError はパスワード長不足のエラーを生成する。
func NewPasswordTooShortError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  "パスワードは6文字以上で入力してください。",
		Category: "validation",
		Action:   "6文字以上のパスワードを設定してください。",
	}
}

// NewTitleRequiredError はタイトル未入力のエラーを生成する。
func NewTitleRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTitleRequired,
		Message:  "タイトルは必須です。",
		Category: "validation",
		Action:   "タイトルを入力してください。",
	}
}

// NewInvalidPriorityError は不正な優先度のエラーを生成する。
func NewInvalidPriorityError(priority string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPriority,
		Message:  fmt.Sprintf("無効な優先度です: %s", priority),
		Category: "validation",
		Action:   "優先度には low、medium、high のいずれかを指定してください。",
	}
}

// NewDuplicateUserError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このユーザー名またはメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のユーザー名またはメールアドレスを使用してください。",
	}
}

// NewInvalidCredentialsError は認証失敗のエラーを生成する。
// メールアドレスの存在有無を明かさないよう、原因を問わず同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度お試しください。",
	}
}

// NewTaskNotFoundError はタスク未検出のエラーを生成する。
// 他ユーザーのタスクへのアクセスも同一のエラーとして扱う。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}
