package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskdeck/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// すべてのクエリはuser_idでスコープされ、他ユーザーのタスクには一切触れない。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByIDAndUser は所有者スコープでタスクを取得する。
// IDが存在しない場合も所有者が異なる場合もnilを返す。
func (r *PostgresTaskRepo) FindByIDAndUser(ctx context.Context, taskID, userID string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, category, priority, completed, due_date, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Category,
		&task.Priority, &task.Completed, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// ListByUser は所有者のタスク一覧をcreated_at降順で返す。
func (r *PostgresTaskRepo) ListByUser(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, category, priority, completed, due_date, created_at, updated_at
		 FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(
			&task.ID, &task.UserID, &task.Title, &task.Description, &task.Category,
			&task.Priority, &task.Completed, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, category, priority, completed, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.UserID, task.Title, task.Description, task.Category,
		task.Priority, task.Completed, task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update は所有者スコープでタスクを上書き更新する。
// 対象行が存在しない場合はmodel.NewTaskNotFoundErrorを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, category = $3, priority = $4,
		     completed = $5, due_date = $6, updated_at = $7
		 WHERE id = $8 AND user_id = $9`,
		task.Title, task.Description, task.Category, task.Priority,
		task.Completed, task.DueDate, task.UpdatedAt,
		task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTaskNotFoundError(task.ID)
	}
	return nil
}

// Delete は所有者スコープでタスクを削除する。
// 対象行が存在しない場合はmodel.NewTaskNotFoundErrorを返す。
func (r *PostgresTaskRepo) Delete(ctx context.Context, taskID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// StatsByUser は所有者のタスク集計を返す。
// カテゴリ数は空文字列を除いた異なり数。
func (r *PostgresTaskRepo) StatsByUser(ctx context.Context, userID string) (*model.TaskStats, error) {
	stats := &model.TaskStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
		     COUNT(*),
		     COUNT(*) FILTER (WHERE completed),
		     COUNT(*) FILTER (WHERE NOT completed),
		     COUNT(DISTINCT NULLIF(category, ''))
		 FROM tasks WHERE user_id = $1`,
		userID,
	).Scan(&stats.TotalTasks, &stats.CompletedTasks, &stats.PendingTasks, &stats.CategoriesCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}
	return stats, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
