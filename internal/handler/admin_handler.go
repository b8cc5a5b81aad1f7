package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/taskdeck/internal/model"
)

// defaultQueuePeekLimit はキュー確認で一度に読み取るメッセージ数の既定値。
const defaultQueuePeekLimit = 10

// maxQueuePeekLimit はキュー確認で読み取れるメッセージ数の上限。
const maxQueuePeekLimit = 100

// QueueInspector は運用向けキュー確認のインターフェース。
// dispatch.RedisQueueの部分集合として定義する。
type QueueInspector interface {
	// Peek はキューの内容を取り出さずに最大limit件読み取る。
	Peek(ctx context.Context, limit int) ([]json.RawMessage, error)
	// Len は現在のキュー長を返す。
	Len(ctx context.Context) (int64, error)
}

// AdminHandler は運用向けエンドポイントのHTTPハンドラー。
type AdminHandler struct {
	inspector QueueInspector
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(inspector QueueInspector) *AdminHandler {
	return &AdminHandler{inspector: inspector}
}

// queueMessagesResponse はキュー確認のAPIレスポンス。
type queueMessagesResponse struct {
	QueueLength int64             `json:"queue_length"`
	Messages    []json.RawMessage `json:"messages"`
}

// QueueMessages はワークキューの内容を削除せずに返す。
// limitクエリパラメータで読み取り件数を指定できる（既定10、上限100）。
// GET /api/admin/queue-messages
func (h *AdminHandler) QueueMessages(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
			Code:     "QUEUE_DISABLED",
			Message:  "イベントキューが無効です。",
			Category: "system",
			Action:   "REDIS_URLの設定を確認してください。",
		})
		return
	}

	limit := defaultQueuePeekLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limitは正の整数で指定してください"))
			return
		}
		if n > maxQueuePeekLimit {
			n = maxQueuePeekLimit
		}
		limit = n
	}

	length, err := h.inspector.Len(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	messages, err := h.inspector.Peek(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(queueMessagesResponse{
		QueueLength: length,
		Messages:    messages,
	})
}
