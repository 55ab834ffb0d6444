package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardify/internal/middleware"
	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/validation"
)

// ログインのエラーレスポンス本文。
const (
	messageSaveUserFailed = "Error saving new user"
	badRequestPrefix      = "Bad Request: "
)

// LoginServiceInterface はログインハンドラーが必要とするサービスインターフェース。
type LoginServiceInterface interface {
	// Login は新規ユーザーであれば users/{uid} を保存し、結果を返す。
	Login(ctx context.Context, identity *model.Identity, req *model.LoginRequest) (*model.LoginResponse, error)
}

// AuthHandler はログインのHTTPハンドラー。
type AuthHandler struct {
	service LoginServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service LoginServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login はログイン（初回は登録）を処理する。Bearerミドルウェアの後に配置する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteText(w, http.StatusUnauthorized, middleware.MessageNoIDToken)
		return
	}

	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteText(w, http.StatusBadRequest, badRequestPrefix+"invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		middleware.WriteText(w, http.StatusBadRequest, badRequestPrefix+err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), identity, &req)
	if err != nil {
		slog.Error("failed to save new user",
			slog.String("user_id", identity.UID),
			slog.String("error", err.Error()),
		)
		middleware.WriteText(w, http.StatusInternalServerError, messageSaveUserFailed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
