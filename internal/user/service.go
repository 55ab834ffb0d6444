// Package user はユーザーレコードの参照処理を提供する。
package user

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/repository"
)

// Service はユーザー参照のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get は検証済みuidのユーザーレコードを保存されたままのJSONで返す。
// レコードが無い場合はnilを返す。
func (s *Service) Get(ctx context.Context, uid string) (json.RawMessage, error) {
	record, err := s.userRepo.FindRecord(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return record, nil
}

// adminField はレコードから isAdmin だけを取り出すための型。
// 型はレコードによって異なりうるため any で受ける。
type adminField struct {
	IsAdmin any `json:"isAdmin"`
}

// IsAdmin はユーザーレコードの isAdmin が真値かを返す。
// レコードやフラグが無い場合はfalseを返す。
func (s *Service) IsAdmin(ctx context.Context, uid string) (bool, error) {
	record, err := s.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	return isAdminRecord(record), nil
}

// GrantAdmin は既存ユーザーの isAdmin を true に設定する。他のフィールドは変更しない。
// HTTPからは呼ばれず、管理コマンドからのみ使用する。
func (s *Service) GrantAdmin(ctx context.Context, uid string) error {
	record, err := s.Get(ctx, uid)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, uid)
	}

	var field adminField
	if err := json.Unmarshal(record, &field); err == nil && field.IsAdmin == true {
		return nil
	}

	if err := s.userRepo.SetAdmin(ctx, uid); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStoreWrite, err)
	}
	return nil
}

// isAdminRecord はレコードの isAdmin を真偽値として評価する。
// オブジェクトでないレコードは管理者ではない。
func isAdminRecord(record json.RawMessage) bool {
	if record == nil {
		return false
	}
	var field adminField
	if err := json.Unmarshal(record, &field); err != nil {
		return false
	}
	return truthy(field.IsAdmin)
}

// truthy はJSON値の真偽を判定する。null・false・0・空文字列は偽。
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
