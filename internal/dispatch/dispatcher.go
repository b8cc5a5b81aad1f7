// Package dispatch はライフサイクルイベントのベストエフォート配信を提供する。
//
// 通知チャネルとワークキューの2系統のシンクへ配信する。どちらの失敗も
// この層で捕捉してログに記録するだけで、呼び出し元のリクエスト処理を
// 失敗させることはなく、リトライも行わない。通知サブシステムの劣化が
// タスク・認証操作の障害に波及しないための可用性トレードオフである。
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/taskdeck/internal/model"
)

// Notifier は人間向け通知チャネルのインターフェース。
type Notifier interface {
	// Publish は件名付きの通知メッセージを送信する。
	Publish(ctx context.Context, subject string, payload []byte) error
}

// Queue は非同期コンシューマ向けワークキューのインターフェース。
type Queue interface {
	// Enqueue は構造化レコードをキュー末尾に追加する。
	Enqueue(ctx context.Context, payload []byte) error
}

// Metrics はディスパッチ結果の記録インターフェース。
type Metrics interface {
	RecordDispatch(sink, result string)
}

// Dispatcher はイベントを2系統のシンクへ配信する。
// 配信は同期的に待機されるが、エラーチャネルはこの境界で終端される。
type Dispatcher struct {
	notifier Notifier
	queue    Queue
	metrics  Metrics
}

// NewDispatcher はDispatcherを生成する。
// metricsはnilを許容する。
func NewDispatcher(notifier Notifier, queue Queue, metrics Metrics) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		queue:    queue,
		metrics:  metrics,
	}
}

// Notify は人間向け通知を送信する。失敗はログに記録するだけで伝播しない。
func (d *Dispatcher) Notify(ctx context.Context, event *model.Event, subject string) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.record("notify", "error")
		slog.Error("failed to serialize notification event",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := d.notifier.Publish(ctx, subject, payload); err != nil {
		d.record("notify", "error")
		slog.Warn("notification publish failed",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	d.record("notify", "ok")
	slog.Info("notification sent",
		slog.String("event_type", event.Type),
		slog.String("subject", subject),
	)
}

// Enqueue はワークキューへイベントを追加する。失敗はログに記録するだけで伝播しない。
func (d *Dispatcher) Enqueue(ctx context.Context, event *model.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.record("queue", "error")
		slog.Error("failed to serialize queue event",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := d.queue.Enqueue(ctx, payload); err != nil {
		d.record("queue", "error")
		slog.Warn("queue enqueue failed",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	d.record("queue", "ok")
	slog.Info("event enqueued",
		slog.String("event_type", event.Type),
	)
}

func (d *Dispatcher) record(sink, result string) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(sink, result)
	}
}
