package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// PostgresStore はPostgreSQLの records テーブルを使用したレコードストア。
// パス単位にJSONドキュメントを保持するフラットな構造で、親パスの読み取りは子を集約しない。
// スキーマは database.RunMigrations で作成する。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Set は path のドキュメントをUPSERTで上書きする。
func (s *PostgresStore) Set(ctx context.Context, path string, value any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (path, value, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p, data,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", p, err)
	}
	return nil
}

// Get は path のドキュメントを取得する。見つからない場合は found=false を返す。
func (s *PostgresStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	p, err := CleanPath(path)
	if err != nil {
		return false, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE path = $1`,
		p,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", p, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return true, nil
}

// Update は path のドキュメントに fields をJSONBの連結でマージする。
// 既存の値がオブジェクトでない場合は fields で置き換える。
func (s *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (path, value, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (path) DO UPDATE SET
		   value = CASE WHEN jsonb_typeof(records.value) = 'object'
		                THEN records.value || EXCLUDED.value
		                ELSE EXCLUDED.value END,
		   updated_at = now()`,
		p, data,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", p, err)
	}
	return nil
}

// Push は parent 配下にUUIDv7キーでドキュメントを追加する。
func (s *PostgresStore) Push(ctx context.Context, parent string, value any) (string, error) {
	p, err := CleanPath(parent)
	if err != nil {
		return "", err
	}

	key, err := newPushKey()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", p, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (path, value, created_at, updated_at)
		 VALUES ($1, $2, now(), now())`,
		Join(p, key), data,
	)
	if err != nil {
		return "", fmt.Errorf("failed to push to %s: %w", p, err)
	}
	return key, nil
}

// Ping はデータベースへの疎通を確認する。
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach postgres: %w", err)
	}
	return nil
}

// Name はバックエンドの表示名を返す。
func (s *PostgresStore) Name() string {
	return "PostgreSQL"
}

// Close はデータベース接続を閉じる。
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
