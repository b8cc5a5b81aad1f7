package model

import "time"

// Priority はタスクの優先度を表す。
type Priority string

const (
	// PriorityLow は低優先度を示す。
	PriorityLow Priority = "low"
	// PriorityMedium は標準優先度を示す。未指定時のデフォルト。
	PriorityMedium Priority = "medium"
	// PriorityHigh は高優先度を示す。作成時に通知が送信される。
	PriorityHigh Priority = "high"
)

// ParsePriority は文字列から優先度を解析する。
// 空文字列はデフォルトのmediumとして扱う。不正な値はエラーを返す。
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "":
		return PriorityMedium, nil
	case string(PriorityLow):
		return PriorityLow, nil
	case string(PriorityMedium):
		return PriorityMedium, nil
	case string(PriorityHigh):
		return PriorityHigh, nil
	default:
		return "", NewInvalidPriorityError(s)
	}
}

// Task はユーザーの作業項目を表す。
// 常に1人のユーザーに属し、すべての読み書きは所有者IDでスコープされる。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    string
	Priority    Priority
	Completed   bool
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate は部分更新のフィールド集合を表す。
// nilのフィールドは既存値を維持する。暗黙的にクリアされるフィールドはない。
type TaskUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *Priority
	Completed   *bool
	DueDate     *time.Time
}

// TaskStats はユーザーごとのタスク集計を表す。
type TaskStats struct {
	TotalTasks      int
	CompletedTasks  int
	PendingTasks    int
	CategoriesCount int
}
