package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// --- モック ---

type mockTaskRepo struct {
	findByIDAndUserFn func(ctx context.Context, taskID, userID string) (*model.Task, error)
	listByUserFn      func(ctx context.Context, userID string) ([]*model.Task, error)
	createFn          func(ctx context.Context, task *model.Task) error
	updateFn          func(ctx context.Context, task *model.Task) error
	deleteFn          func(ctx context.Context, taskID, userID string) error
	statsByUserFn     func(ctx context.Context, userID string) (*model.TaskStats, error)
}

func (m *mockTaskRepo) FindByIDAndUser(ctx context.Context, taskID, userID string) (*model.Task, error) {
	if m.findByIDAndUserFn != nil {
		return m.findByIDAndUserFn(ctx, taskID, userID)
	}
	return nil, nil
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID string) ([]*model.Task, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *model.Task) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, taskID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, taskID, userID)
	}
	return nil
}

func (m *mockTaskRepo) StatsByUser(ctx context.Context, userID string) (*model.TaskStats, error) {
	if m.statsByUserFn != nil {
		return m.statsByUserFn(ctx, userID)
	}
	return &model.TaskStats{}, nil
}

// mockDispatcher は発行されたイベントを記録する。
type mockDispatcher struct {
	notified []*model.Event
	enqueued []*model.Event
}

func (m *mockDispatcher) Notify(ctx context.Context, event *model.Event, subject string) {
	m.notified = append(m.notified, event)
}

func (m *mockDispatcher) Enqueue(ctx context.Context, event *model.Event) {
	m.enqueued = append(m.enqueued, event)
}

// passthroughSanitizer は入力をそのまま返す。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

func newTestService(repo *mockTaskRepo, d *mockDispatcher) *Service {
	return NewService(repo, passthroughSanitizer{}, d)
}

func strPtr(s string) *string       { return &s }
func boolPtr(b bool) *bool          { return &b }
func existingTask(completed bool) *model.Task {
	return &model.Task{
		ID:        "task-1",
		UserID:    "user-1",
		Title:     "Pay rent",
		Priority:  model.PriorityMedium,
		Completed: completed,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

// --- 作成テスト ---

// 高優先度タスクの作成で通知とキューの両方が発行されることを検証
func TestService_Create_HighPriority(t *testing.T) {
	var persisted *model.Task
	repo := &mockTaskRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			persisted = task
			return nil
		},
	}
	d := &mockDispatcher{}

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	result, err := newTestService(repo, d).Create(context.Background(), "user-1", CreateInput{
		Title:    "Pay rent",
		Priority: "high",
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if persisted == nil {
		t.Fatal("task was not persisted")
	}
	if result.Completed {
		t.Error("new task should not be completed")
	}
	if result.Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", result.Priority)
	}
	if result.DueDate == nil || !result.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", result.DueDate, due)
	}
	if len(d.notified) != 1 || d.notified[0].Type != model.EventTaskHighPriority {
		t.Errorf("notified = %+v, want one task.high_priority event", d.notified)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskCreated {
		t.Errorf("enqueued = %+v, want one task.created event", d.enqueued)
	}
}

// 通常優先度の作成では通知が発行されないことを検証
func TestService_Create_DefaultPriorityNoNotification(t *testing.T) {
	d := &mockDispatcher{}

	result, err := newTestService(&mockTaskRepo{}, d).Create(context.Background(), "user-1", CreateInput{
		Title: "Buy milk",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if result.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want medium default", result.Priority)
	}
	if len(d.notified) != 0 {
		t.Errorf("notified = %+v, want none", d.notified)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskCreated {
		t.Errorf("enqueued = %+v, want one task.created event", d.enqueued)
	}
}

// タイトル未入力の作成がValidationErrorで拒否されることを検証
func TestService_Create_TitleRequired(t *testing.T) {
	_, err := newTestService(&mockTaskRepo{}, &mockDispatcher{}).Create(context.Background(), "user-1", CreateInput{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTitleRequired {
		t.Errorf("expected title required error, got %v", err)
	}
}

// 不正な優先度の作成がValidationErrorで拒否されることを検証
func TestService_Create_InvalidPriority(t *testing.T) {
	_, err := newTestService(&mockTaskRepo{}, &mockDispatcher{}).Create(context.Background(), "user-1", CreateInput{
		Title:    "Buy milk",
		Priority: "urgent",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidPriority {
		t.Errorf("expected invalid priority error, got %v", err)
	}
}

// --- 更新テスト ---

// 未完了→完了の遷移で完了通知がちょうど1回発行されることを検証
func TestService_Update_CompletionTransitionNotifies(t *testing.T) {
	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existingTask(false), nil
		},
	}
	d := &mockDispatcher{}

	result, err := newTestService(repo, d).Update(context.Background(), "user-1", "task-1", model.TaskUpdate{
		Completed: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !result.Completed {
		t.Error("task should be completed")
	}
	if len(d.notified) != 1 || d.notified[0].Type != model.EventTaskCompleted {
		t.Errorf("notified = %+v, want exactly one task.completed event", d.notified)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskCompleted {
		t.Errorf("enqueued = %+v, want one task.completed event", d.enqueued)
	}
}

// 完了→未完了（再オープン）が通知なしで処理されることを検証
func TestService_Update_ReopenIsSilent(t *testing.T) {
	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existingTask(true), nil
		},
	}
	d := &mockDispatcher{}

	_, err := newTestService(repo, d).Update(context.Background(), "user-1", "task-1", model.TaskUpdate{
		Completed: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(d.notified) != 0 {
		t.Errorf("notified = %+v, want none for reopen", d.notified)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskUpdated {
		t.Errorf("enqueued = %+v, want one task.updated event", d.enqueued)
	}
}

// 完了済みタスクをcompleted:trueで再保存しても完了通知が発行されないことを検証
func TestService_Update_AlreadyCompletedStaysSilent(t *testing.T) {
	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existingTask(true), nil
		},
	}
	d := &mockDispatcher{}

	result, err := newTestService(repo, d).Update(context.Background(), "user-1", "task-1", model.TaskUpdate{
		Completed: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !result.Completed {
		t.Error("task should remain completed")
	}
	if len(d.notified) != 0 {
		t.Errorf("notified = %+v, want none for no-op completion", d.notified)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskUpdated {
		t.Errorf("enqueued = %+v, want one task.updated event", d.enqueued)
	}
}

// 未完了→未完了の再保存が完了通知を発行しないことを検証
func TestService_Update_PendingToPendingIsSilent(t *testing.T) {
	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existingTask(false), nil
		},
	}
	d := &mockDispatcher{}

	_, err := newTestService(repo, d).Update(context.Background(), "user-1", "task-1", model.TaskUpdate{
		Title: strPtr("Pay rent again"),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(d.notified) != 0 {
		t.Errorf("notified = %+v, want none", d.notified)
	}
}

// nilフィールドが既存値を維持することを検証（部分更新）
func TestService_Update_PartialFieldsRetainExisting(t *testing.T) {
	existing := existingTask(false)
	existing.Description = "monthly payment"
	existing.Category = "finance"

	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existing, nil
		},
	}

	result, err := newTestService(repo, &mockDispatcher{}).Update(context.Background(), "user-1", "task-1", model.TaskUpdate{
		Title: strPtr("Pay rent (updated)"),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if result.Title != "Pay rent (updated)" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Description != "monthly payment" {
		t.Errorf("Description = %q, want retained value", result.Description)
	}
	if result.Category != "finance" {
		t.Errorf("Category = %q, want retained value", result.Category)
	}
	if result.Completed {
		t.Error("Completed should retain false")
	}
}

// 存在しない・他人所有のタスク更新がNotFoundになることを検証
func TestService_Update_NotFound(t *testing.T) {
	d := &mockDispatcher{}

	_, err := newTestService(&mockTaskRepo{}, d).Update(context.Background(), "user-2", "task-1", model.TaskUpdate{
		Completed: boolPtr(true),
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskNotFound {
		t.Errorf("expected task not found error, got %v", err)
	}
	if len(d.notified)+len(d.enqueued) != 0 {
		t.Error("no events should be dispatched for a failed update")
	}
}

// --- 削除テスト ---

// 削除イベントに削除時点のタイトルが載ることを検証
func TestService_Delete_EmitsTitleInEvent(t *testing.T) {
	repo := &mockTaskRepo{
		findByIDAndUserFn: func(ctx context.Context, taskID, userID string) (*model.Task, error) {
			return existingTask(false), nil
		},
	}
	d := &mockDispatcher{}

	if err := newTestService(repo, d).Delete(context.Background(), "user-1", "task-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(d.enqueued) != 1 || d.enqueued[0].Type != model.EventTaskDeleted {
		t.Fatalf("enqueued = %+v, want one task.deleted event", d.enqueued)
	}
	if d.enqueued[0].Title != "Pay rent" {
		t.Errorf("event title = %q, want former task title", d.enqueued[0].Title)
	}
}

// 存在しないタスクの削除がNotFoundになり、イベントが発行されないことを検証
func TestService_Delete_NotFoundNoDispatch(t *testing.T) {
	d := &mockDispatcher{}
	svc := newTestService(&mockTaskRepo{}, d)

	// 2回連続で同じNotFoundが返ること（冪等な失敗）
	for i := 0; i < 2; i++ {
		err := svc.Delete(context.Background(), "user-1", "gone")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskNotFound {
			t.Errorf("attempt %d: expected task not found error, got %v", i+1, err)
		}
	}
	if len(d.enqueued)+len(d.notified) != 0 {
		t.Error("no events should be dispatched for failed deletes")
	}
}

// --- 一覧・集計テスト ---

// 一覧が所有者IDでスコープされることを検証
func TestService_List_OwnerScoped(t *testing.T) {
	var gotUserID string
	repo := &mockTaskRepo{
		listByUserFn: func(ctx context.Context, userID string) ([]*model.Task, error) {
			gotUserID = userID
			return []*model.Task{existingTask(false)}, nil
		},
	}

	tasks, err := newTestService(repo, &mockDispatcher{}).List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotUserID != "user-1" {
		t.Errorf("repo queried with userID = %q, want %q", gotUserID, "user-1")
	}
	if len(tasks) != 1 {
		t.Errorf("len(tasks) = %d, want 1", len(tasks))
	}
}

// 集計がリポジトリの結果をそのまま返し、イベントを発行しないことを検証
func TestService_Stats(t *testing.T) {
	repo := &mockTaskRepo{
		statsByUserFn: func(ctx context.Context, userID string) (*model.TaskStats, error) {
			return &model.TaskStats{TotalTasks: 5, CompletedTasks: 2, PendingTasks: 3, CategoriesCount: 2}, nil
		},
	}
	d := &mockDispatcher{}

	stats, err := newTestService(repo, d).Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalTasks != 5 || stats.CompletedTasks != 2 || stats.PendingTasks != 3 || stats.CategoriesCount != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if len(d.notified)+len(d.enqueued) != 0 {
		t.Error("stats should not dispatch events")
	}
}
