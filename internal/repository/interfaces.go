// Package repository はドメインレコードの永続化インターフェースを定義する。
// 実体はパス指定のレコードストア（recordstore.Store）上に載る。
package repository

import (
	"context"
	"encoding/json"

	"github.com/hitoshi/guardify/internal/model"
)

const (
	// usersPath はユーザーレコードを保持するコレクションのパス。
	usersPath = "users"
	// locationsPath は位置情報レコードを追記するリストのパス。
	locationsPath = "locations"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindRecord は users/{uid} のレコードを保存されたままのJSONで返す。見つからない場合はnilを返す。
	// model.User に無いフィールドも含めて返す。
	FindRecord(ctx context.Context, uid string) (json.RawMessage, error)

	// SetAdmin は users/{uid} の isAdmin のみを true に更新する。他のフィールドは保持する。
	SetAdmin(ctx context.Context, uid string) error

	// Save は users/{uid} を user で上書きする。既存フィールドは保持しない。
	Save(ctx context.Context, user *model.User) error
}

// LocationRepository は位置情報の永続化インターフェース。
// 追記のみで、更新・削除の手段は持たない。
type LocationRepository interface {
	// Append は locations リストに1件追加し、生成されたキーを返す。
	Append(ctx context.Context, location *model.Location) (string, error)
}
