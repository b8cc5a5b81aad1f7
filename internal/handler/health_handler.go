package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// DatabasePinger はヘルスチェックに必要なデータベース接続のインターフェース。
// *sql.DBの部分集合として定義する。
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// QueuePinger はイベントシンク接続の疎通確認インターフェース。
type QueuePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler はサービスの稼働状態を返すHTTPハンドラー。
type HealthHandler struct {
	db            DatabasePinger
	queue         QueuePinger
	idpConfigured bool
}

// NewHealthHandler はHealthHandlerを生成する。
// queueはnilを許容する（イベントシンク無効時）。
func NewHealthHandler(db DatabasePinger, queue QueuePinger, idpConfigured bool) *HealthHandler {
	return &HealthHandler{
		db:            db,
		queue:         queue,
		idpConfigured: idpConfigured,
	}
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	EventSink        string `json:"event_sink"`
	IdentityProvider string `json:"identity_provider"`
}

// Health はヘルスチェックを処理する。
// データベースが疎通しない場合のみ500を返す。
// イベントシンクはベストエフォートのため、障害時もサービス自体は稼働扱いとする。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "ok",
		Database:         "ok",
		EventSink:        "ok",
		IdentityProvider: "configured",
	}

	statusCode := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Error("health check failed: database unreachable",
			slog.String("error", err.Error()),
		)
		resp.Status = "error"
		resp.Database = "error"
		statusCode = http.StatusInternalServerError
	}

	if h.queue == nil {
		resp.EventSink = "disabled"
	} else if err := h.queue.Ping(r.Context()); err != nil {
		slog.Warn("health check: event sink unreachable",
			slog.String("error", err.Error()),
		)
		resp.EventSink = "error"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	if !h.idpConfigured {
		resp.IdentityProvider = "unconfigured"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
