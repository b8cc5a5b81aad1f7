package model

import "time"

// イベントタイプの定義。
const (
	EventUserRegistered   = "user.registered"
	EventUserLogin        = "user.login"
	EventTaskCreated      = "task.created"
	EventTaskUpdated      = "task.updated"
	EventTaskCompleted    = "task.completed"
	EventTaskDeleted      = "task.deleted"
	EventTaskHighPriority = "task.high_priority"
)

// Event はライフサイクル遷移に伴って発行される一時的なイベントレコード。
// コアでは永続化も読み戻しも行わず、ディスパッチャに渡して終わる。
// ペイロードはフラットな構造で、スキーマバージョニングは定義しない。
type Event struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Title     string `json:"title,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Category  string `json:"category,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	Method    string `json:"login_method,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewEvent は指定タイプのイベントを現在時刻のタイムスタンプ付きで生成する。
// タイムスタンプはISO-8601（RFC3339）形式。
func NewEvent(eventType string) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
