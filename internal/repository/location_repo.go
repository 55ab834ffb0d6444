package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/recordstore"
)

// StoreLocationRepo はレコードストアを使用した位置情報リポジトリ。
type StoreLocationRepo struct {
	store recordstore.Store
}

// NewStoreLocationRepo はStoreLocationRepoを生成する。
func NewStoreLocationRepo(store recordstore.Store) *StoreLocationRepo {
	return &StoreLocationRepo{store: store}
}

// Append は locations リストに位置情報を追加する。
func (r *StoreLocationRepo) Append(ctx context.Context, location *model.Location) (string, error) {
	key, err := r.store.Push(ctx, locationsPath, location)
	if err != nil {
		return "", fmt.Errorf("failed to append location: %w", err)
	}
	return key, nil
}

// compile-time interface check
var _ LocationRepository = (*StoreLocationRepo)(nil)
