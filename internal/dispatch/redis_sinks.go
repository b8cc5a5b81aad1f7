package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier はRedis Pub/Subチャネルへの通知シンク。
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier はRedisNotifierを生成する。
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// notificationEnvelope は通知チャネルに載せる件名付きエンベロープ。
type notificationEnvelope struct {
	Subject string          `json:"subject"`
	Message json.RawMessage `json:"message"`
}

// Publish は件名付きの通知メッセージをチャネルへPUBLISHする。
func (n *RedisNotifier) Publish(ctx context.Context, subject string, payload []byte) error {
	body, err := json.Marshal(notificationEnvelope{
		Subject: subject,
		Message: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification envelope: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// RedisQueue はRedisリストを使用した永続ワークキュー。
// プロデューサはLPUSHで先頭に積み、コンシューマはBRPOPで末尾（最古）から取り出す。
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue はRedisQueueを生成する。
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue は構造化レコードをキューに追加する。
func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}
	return nil
}

// Dequeue はキュー最古のメッセージをブロッキングで取り出す。
// timeoutが経過してもメッセージがない場合は(nil, nil)を返す。
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue message: %w", err)
	}
	// BRPopは[key, value]の2要素を返す
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length: %d", len(result))
	}
	return []byte(result[1]), nil
}

// Peek はキューの内容を取り出さずに最大limit件読み取る。
// 運用時のキュー確認用で、メッセージは削除されない。
func (q *RedisQueue) Peek(ctx context.Context, limit int) ([]json.RawMessage, error) {
	values, err := q.client.LRange(ctx, q.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	messages := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		messages = append(messages, json.RawMessage(v))
	}
	return messages, nil
}

// Len は現在のキュー長を返す。
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

// compile-time interface checks
var (
	_ Notifier = (*RedisNotifier)(nil)
	_ Queue    = (*RedisQueue)(nil)
)
