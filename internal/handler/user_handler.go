package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardify/internal/middleware"
)

// messageFetchUserFailed はユーザー取得失敗時のレスポンス本文。
const messageFetchUserFailed = "Error fetching user"

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get はユーザーレコードを保存されたままのJSONで返す。存在しない場合はnilを返す。
	Get(ctx context.Context, uid string) (json.RawMessage, error)
}

// UserHandler はユーザー参照のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userResponse は GET /user のレスポンス。レコードは加工せずに返し、無い場合は user: null になる。
type userResponse struct {
	User json.RawMessage `json:"user"`
}

// GetUser は検証済みuidのユーザーレコードを返す。Bearerミドルウェアの後に配置する。
// GET /user
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteText(w, http.StatusUnauthorized, middleware.MessageNoIDToken)
		return
	}

	record, err := h.service.Get(r.Context(), identity.UID)
	if err != nil {
		slog.Error("failed to fetch user",
			slog.String("user_id", identity.UID),
			slog.String("error", err.Error()),
		)
		middleware.WriteText(w, http.StatusInternalServerError, messageFetchUserFailed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, userResponse{User: record})
}
