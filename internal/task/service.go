// Package task はタスクのライフサイクル管理とイベント発行のオーケストレーションを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// EventDispatcher はタスクサービスが発行するイベントの送信インターフェース。
// 両操作ともベストエフォートで、失敗は内部で吸収され呼び出し側には伝播しない。
type EventDispatcher interface {
	Notify(ctx context.Context, event *model.Event, subject string)
	Enqueue(ctx context.Context, event *model.Event)
}

// Sanitizer はユーザー入力テキストのサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CreateInput はタスク作成の入力フィールド。
type CreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	DueDate     *time.Time
}

// Service はタスク管理のサービス層。
// 永続状態はTaskRegistryたるリポジトリだけが持ち、サービスは呼び出しを
// またいでタスク状態を保持しない。
type Service struct {
	taskRepo   repository.TaskRepository
	sanitizer  Sanitizer
	dispatcher EventDispatcher
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer Sanitizer, dispatcher EventDispatcher) *Service {
	return &Service{
		taskRepo:   taskRepo,
		sanitizer:  sanitizer,
		dispatcher: dispatcher,
	}
}

// Create は新規タスクを作成する。
// タイトルは必須。優先度が未指定の場合はmediumになる。
// 高優先度タスクの場合はtask.createdの前にtask.high_priority通知を発行する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	title := s.sanitizer.Sanitize(in.Title)
	if title == "" {
		return nil, model.NewTitleRequiredError()
	}

	priority, err := model.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: s.sanitizer.Sanitize(in.Description),
		Category:    in.Category,
		Priority:    priority,
		Completed:   false,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	// 高優先度タスクは人間向け通知も送る
	if priority == model.PriorityHigh {
		event := s.taskEvent(model.EventTaskHighPriority, t)
		s.dispatcher.Notify(ctx, event, "高優先度タスク作成")
	}

	created := s.taskEvent(model.EventTaskCreated, t)
	s.dispatcher.Enqueue(ctx, created)

	slog.Info("task created",
		slog.String("task_id", t.ID),
		slog.String("user_id", userID),
		slog.String("priority", string(priority)),
	)

	return t, nil
}

// Update は所有者スコープでタスクを部分更新する。
// nilのフィールドは既存値を維持し、暗黙的にクリアされるフィールドはない。
// 完了フラグの遷移のうち通知を発行するのは未完了→完了のみで、
// 完了→未完了（再オープン）と無変化の再保存は通知なしで処理される。
func (s *Service) Update(ctx context.Context, userID, taskID string, upd model.TaskUpdate) (*model.Task, error) {
	existing, err := s.taskRepo.FindByIDAndUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	wasCompleted := existing.Completed

	if upd.Title != nil {
		title := s.sanitizer.Sanitize(*upd.Title)
		if title == "" {
			return nil, model.NewTitleRequiredError()
		}
		existing.Title = title
	}
	if upd.Description != nil {
		existing.Description = s.sanitizer.Sanitize(*upd.Description)
	}
	if upd.Category != nil {
		existing.Category = *upd.Category
	}
	if upd.Priority != nil {
		existing.Priority = *upd.Priority
	}
	if upd.Completed != nil {
		existing.Completed = *upd.Completed
	}
	if upd.DueDate != nil {
		existing.DueDate = upd.DueDate
	}
	existing.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if !wasCompleted && existing.Completed {
		// 未完了→完了の遷移のみが完了通知を発行する
		event := s.taskEvent(model.EventTaskCompleted, existing)
		s.dispatcher.Notify(ctx, event, "タスク完了")
		s.dispatcher.Enqueue(ctx, event)
	} else {
		s.dispatcher.Enqueue(ctx, s.taskEvent(model.EventTaskUpdated, existing))
	}

	return existing, nil
}

// Delete は所有者スコープでタスクを削除する。
// 削除イベントには削除時点のタイトルを載せる。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	existing, err := s.taskRepo.FindByIDAndUser(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.NewTaskNotFoundError(taskID)
	}

	if err := s.taskRepo.Delete(ctx, taskID, userID); err != nil {
		return err
	}

	event := s.taskEvent(model.EventTaskDeleted, existing)
	s.dispatcher.Enqueue(ctx, event)

	slog.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
	)

	return nil
}

// List は所有者のタスク一覧をcreated_at降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Stats は所有者のタスク集計を返す。読み取り専用でイベントは発行しない。
func (s *Service) Stats(ctx context.Context, userID string) (*model.TaskStats, error) {
	stats, err := s.taskRepo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

// taskEvent はタスクイベントの共通ペイロードを構築する。
func (s *Service) taskEvent(eventType string, t *model.Task) *model.Event {
	event := model.NewEvent(eventType)
	event.TaskID = t.ID
	event.UserID = t.UserID
	event.Title = t.Title
	event.Priority = string(t.Priority)
	event.Category = t.Category
	event.Completed = t.Completed
	return event
}
