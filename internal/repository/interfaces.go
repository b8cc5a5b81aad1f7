// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsByUsernameOrEmail はユーザー名またはメールアドレスが登録済みか調べる。
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create はユーザーを作成する。
	// 一意制約違反（登録競合によるものを含む）はmodel.NewDuplicateUserErrorとして返す。
	Create(ctx context.Context, user *model.User) error

	// UpdatePasswordHash は指定ユーザーのローカル認証情報を差し替える。
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての読み書きは所有者IDでスコープされる。
type TaskRepository interface {
	// FindByIDAndUser は所有者スコープでタスクを取得する。
	// IDが存在しない場合も所有者が異なる場合もnilを返す。
	FindByIDAndUser(ctx context.Context, taskID, userID string) (*model.Task, error)

	// ListByUser は所有者のタスク一覧をcreated_at降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update は所有者スコープでタスクを上書き更新する。
	// 対象行が存在しない場合はmodel.NewTaskNotFoundErrorを返す。
	Update(ctx context.Context, task *model.Task) error

	// Delete は所有者スコープでタスクを削除する。
	// 対象行が存在しない場合はmodel.NewTaskNotFoundErrorを返す。
	Delete(ctx context.Context, taskID, userID string) error

	// StatsByUser は所有者のタスク集計（総数・完了数・未完了数・非空カテゴリ数）を返す。
	StatsByUser(ctx context.Context, userID string) (*model.TaskStats, error)
}
