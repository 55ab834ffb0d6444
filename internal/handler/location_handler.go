package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardify/internal/middleware"
	"github.com/hitoshi/guardify/internal/model"
)

// 位置情報追加のレスポンス本文。
const (
	messageLocationAdded    = "Location added successfully!"
	messageAddLocationError = "Error adding location: "
)

// LocationServiceInterface は位置情報ハンドラーが必要とするサービスインターフェース。
type LocationServiceInterface interface {
	// Add は位置情報を locations に追記し、生成されたキーを返す。
	Add(ctx context.Context, req *model.LocationRequest) (string, error)
}

// LocationHandler は位置情報のHTTPハンドラー。
type LocationHandler struct {
	service LocationServiceInterface
}

// NewLocationHandler はLocationHandlerを生成する。
func NewLocationHandler(service LocationServiceInterface) *LocationHandler {
	return &LocationHandler{service: service}
}

// AddLocation は位置情報を追記する。認証は行わない。
// POST /add-location
func (h *LocationHandler) AddLocation(w http.ResponseWriter, r *http.Request) {
	var req model.LocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteText(w, http.StatusBadRequest, messageAddLocationError+"invalid request body")
		return
	}

	if _, err := h.service.Add(r.Context(), &req); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			middleware.WriteText(w, http.StatusBadRequest, messageAddLocationError+err.Error())
			return
		}
		slog.Error("failed to add location",
			slog.String("user_id", req.LocationUserID()),
			slog.String("error", err.Error()),
		)
		middleware.WriteText(w, http.StatusInternalServerError, messageAddLocationError+err.Error())
		return
	}

	middleware.WriteText(w, http.StatusOK, messageLocationAdded)
}
