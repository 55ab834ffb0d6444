package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/guardify/internal/middleware"
)

// pingTimeout はヘルスチェック時のストア疎通確認のタイムアウト。
const pingTimeout = 3 * time.Second

// StorePinger はヘルスチェックが必要とするレコードストアのインターフェース。
type StorePinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// HealthHandler は疎通確認のHTTPハンドラー。
type HealthHandler struct {
	store StorePinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(store StorePinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Test はサーバーの起動確認用の固定メッセージを返す。外部呼び出しは行わない。
// GET /test
func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	middleware.WriteText(w, http.StatusOK, h.store.Name()+" connected and server is running!")
}

// Health はレコードストアへの疎通を確認する。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed",
			slog.String("backend", h.store.Name()),
			slog.String("error", err.Error()),
		)
		middleware.WriteText(w, http.StatusServiceUnavailable, "unavailable")
		return
	}

	middleware.WriteText(w, http.StatusOK, "ok")
}
