// Package recordstore はパスで指定する階層型レコードストアへのクライアントを提供する。
// バックエンド（Firebase Realtime Database / PostgreSQL / Badger）は起動時に1つ選択する。
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidPath はパスが空、または予約文字を含む場合のエラー。
var ErrInvalidPath = errors.New("invalid record path")

// reservedChars はキーに使用できない文字（Realtime Databaseの制約に合わせる）。
const reservedChars = ".$#[]"

// Store はレコードストアの操作インターフェース。
// すべての操作は1回のラウンドトリップで完結し、リトライは行わない。
type Store interface {
	// Set は path の値を value で上書きする。既存の値は残らない。
	Set(ctx context.Context, path string, value any) error

	// Get は path の値を dst にデコードする。値が無い場合は found=false を返す。
	Get(ctx context.Context, path string, dst any) (found bool, err error)

	// Update は path のレコードに fields の子要素をマージする。指定しなかった子要素は保持する。
	// レコードが無い場合は fields だけを持つレコードを作成する。
	Update(ctx context.Context, path string, fields map[string]any) error

	// Push は parent 配下に時系列順のキーで value を追加し、生成したキーを返す。
	Push(ctx context.Context, parent string, value any) (key string, err error)

	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error

	// Name はバックエンドの表示名を返す。
	Name() string

	// Close は保持しているリソースを解放する。
	Close() error
}

// CleanPath は先頭のスラッシュを除去し、パスの各セグメントを検証する。
// 空のセグメント（末尾のスラッシュを含む）は許可しない。
func CleanPath(path string) (string, error) {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || strings.ContainsAny(seg, reservedChars) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return p, nil
}

// Join はセグメントを連結してパスを組み立てる。
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// newPushKey はPush用のキーを生成する。
// UUIDv7は生成時刻順に並ぶため、リストの追記順序がキー順と一致する。
func newPushKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate push key: %w", err)
	}
	return id.String(), nil
}
