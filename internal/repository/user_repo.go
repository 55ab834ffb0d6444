package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/recordstore"
)

// StoreUserRepo はレコードストアを使用したユーザーリポジトリ。
type StoreUserRepo struct {
	store recordstore.Store
}

// NewStoreUserRepo はStoreUserRepoを生成する。
func NewStoreUserRepo(store recordstore.Store) *StoreUserRepo {
	return &StoreUserRepo{store: store}
}

// FindRecord は users/{uid} のレコードを加工せずに返す。見つからない場合はnilを返す。
func (r *StoreUserRepo) FindRecord(ctx context.Context, uid string) (json.RawMessage, error) {
	var raw json.RawMessage
	found, err := r.store.Get(ctx, recordstore.Join(usersPath, uid), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to find user record: %w", err)
	}
	if !found {
		return nil, nil
	}
	return raw, nil
}

// SetAdmin は users/{uid} の isAdmin を true にマージする。
func (r *StoreUserRepo) SetAdmin(ctx context.Context, uid string) error {
	err := r.store.Update(ctx, recordstore.Join(usersPath, uid), map[string]any{"isAdmin": true})
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	return nil
}

// Save は users/{uid} を上書きする。
// 存在確認は行わないため、同一uidへの同時書き込みは後勝ちとなる。
func (r *StoreUserRepo) Save(ctx context.Context, user *model.User) error {
	if err := r.store.Set(ctx, recordstore.Join(usersPath, user.UID), user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*StoreUserRepo)(nil)
