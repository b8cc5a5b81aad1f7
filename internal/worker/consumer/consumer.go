// Package consumer はワークキューのバックグラウンド消費処理を提供する。
// BRPOPのブロッキング取り出しでキュー最古のイベントから順に処理する。
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// defaultPollTimeout はブロッキング取り出しの既定タイムアウト。
// コンテキストキャンセルに定期的に反応できるよう有限値にする。
const defaultPollTimeout = 5 * time.Second

// QueueSource はイベント取り出しのインターフェース。
// dispatch.RedisQueueの部分集合として定義する。
type QueueSource interface {
	// Dequeue はキュー最古のメッセージをブロッキングで取り出す。
	// timeoutが経過してもメッセージがない場合は(nil, nil)を返す。
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Metrics は消費イベントの記録インターフェース。
type Metrics interface {
	RecordEventConsumed(eventType string)
}

// Consumer はワークキューからイベントを取り出して処理するワーカー。
// 処理は取り出したイベントの構造化ログ出力とメトリクス記録で、
// 解析できないメッセージは警告を出して読み飛ばす。
type Consumer struct {
	queue       QueueSource
	logger      *slog.Logger
	metrics     Metrics
	pollTimeout time.Duration
}

// NewConsumer はConsumerを生成する。
// metricsはnilを許容する。pollTimeoutが0以下の場合は既定値を使用する。
func NewConsumer(queue QueueSource, logger *slog.Logger, metrics Metrics, pollTimeout time.Duration) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Consumer{
		queue:       queue,
		logger:      logger,
		metrics:     metrics,
		pollTimeout: pollTimeout,
	}
}

// Start はキュー消費ループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("イベントコンシューマを開始しました",
		slog.Duration("poll_timeout", c.pollTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("イベントコンシューマを停止しました")
			return
		default:
		}

		payload, err := c.queue.Dequeue(ctx, c.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("イベントコンシューマを停止しました")
				return
			}
			c.logger.Error("キューからの取り出しに失敗しました",
				slog.String("error", err.Error()),
			)
			// 接続障害時の連続エラーを避けるため少し待つ
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if payload == nil {
			continue
		}

		c.process(payload)
	}
}

// process はイベント1件を処理する。
func (c *Consumer) process(payload []byte) {
	var event model.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Warn("解析できないメッセージを読み飛ばします",
			slog.String("error", err.Error()),
			slog.String("payload", string(payload)),
		)
		return
	}

	if c.metrics != nil {
		c.metrics.RecordEventConsumed(event.Type)
	}

	c.logger.Info("イベントを処理しました",
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID),
		slog.String("task_id", event.TaskID),
		slog.String("timestamp", event.Timestamp),
	)
}
