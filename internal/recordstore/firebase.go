package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	"firebase.google.com/go/v4/db"
)

// firebaseRef は *db.Ref のうちストアが使用する部分集合。
type firebaseRef interface {
	Set(ctx context.Context, v interface{}) error
	Get(ctx context.Context, v interface{}) error
	Update(ctx context.Context, v map[string]interface{}) error
	GetShallow(ctx context.Context, v interface{}) error
	Push(ctx context.Context, v interface{}) (*db.Ref, error)
}

// FirebaseStore はFirebase Realtime Databaseを使用したレコードストア。
type FirebaseStore struct {
	newRef func(path string) firebaseRef
}

// NewFirebaseStore はFirebaseStoreを生成する。
func NewFirebaseStore(client *db.Client) *FirebaseStore {
	return &FirebaseStore{
		newRef: func(path string) firebaseRef { return client.NewRef(path) },
	}
}

// Set は path の値を上書きする。
func (s *FirebaseStore) Set(ctx context.Context, path string, value any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.newRef(p).Set(ctx, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", p, err)
	}
	return nil
}

// Get は path の値を取得する。Realtime Databaseは存在しないパスに null を返す。
func (s *FirebaseStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	p, err := CleanPath(path)
	if err != nil {
		return false, err
	}

	var raw json.RawMessage
	if err := s.newRef(p).Get(ctx, &raw); err != nil {
		return false, fmt.Errorf("failed to get %s: %w", p, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return true, nil
}

// Update は path の子要素を部分更新する。
func (s *FirebaseStore) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.newRef(p).Update(ctx, fields); err != nil {
		return fmt.Errorf("failed to update %s: %w", p, err)
	}
	return nil
}

// Push は parent 配下にRealtime Databaseのプッシュキーで値を追加する。
func (s *FirebaseStore) Push(ctx context.Context, parent string, value any) (string, error) {
	p, err := CleanPath(parent)
	if err != nil {
		return "", err
	}
	ref, err := s.newRef(p).Push(ctx, value)
	if err != nil {
		return "", fmt.Errorf("failed to push to %s: %w", p, err)
	}
	return ref.Key, nil
}

// Ping はルートのシャロー読み取りで疎通を確認する。
// ルート全体を読むとデータベース全体を転送してしまうため、キー一覧のみ取得する。
func (s *FirebaseStore) Ping(ctx context.Context) error {
	var keys any
	if err := s.newRef("/").GetShallow(ctx, &keys); err != nil {
		return fmt.Errorf("failed to reach firebase: %w", err)
	}
	return nil
}

// Name はバックエンドの表示名を返す。
func (s *FirebaseStore) Name() string {
	return "Firebase"
}

// Close は何もしない。クライアントのライフサイクルはfirebase.Appが管理する。
func (s *FirebaseStore) Close() error {
	return nil
}

// compile-time interface check
var _ Store = (*FirebaseStore)(nil)
