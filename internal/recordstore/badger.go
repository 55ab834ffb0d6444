package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerStore は組み込みのBadgerDBを使用したレコードストア。
// ローカル開発や単一ノード運用向け。キーにはパスをそのまま使用する。
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger はBadgerDBを開く。dir が空の場合はインメモリで起動する。
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore は既に開いているBadgerDBからBadgerStoreを生成する。
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Set は path の値を上書きする。
func (s *BadgerStore) Set(ctx context.Context, path string, value any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(p), data)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", p, err)
	}
	return nil
}

// Get は path の値を取得する。キーが無い場合は found=false を返す。
func (s *BadgerStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	p, err := CleanPath(path)
	if err != nil {
		return false, err
	}

	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(p))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", p, err)
	}
	return found, nil
}

// Update は path の値に fields をマージする。読み取りと書き込みは同一トランザクションで行う。
// 既存の値がオブジェクトでない場合は fields で置き換える。
func (s *BadgerStore) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		merged := map[string]json.RawMessage{}

		item, err := txn.Get([]byte(p))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				if json.Unmarshal(val, &merged) != nil {
					merged = map[string]json.RawMessage{}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if merged == nil {
				merged = map[string]json.RawMessage{}
			}
		}

		for k, v := range fields {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode %s/%s: %w", p, k, err)
			}
			merged[k] = data
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", p, err)
		}
		return txn.Set([]byte(p), data)
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", p, err)
	}
	return nil
}

// Push は parent 配下にUUIDv7キーで値を追加する。
func (s *BadgerStore) Push(ctx context.Context, parent string, value any) (string, error) {
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

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Join(p, key)), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to push to %s: %w", p, err)
	}
	return key, nil
}

// Ping はDBが閉じられていないことを確認する。
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

// Name はバックエンドの表示名を返す。
func (s *BadgerStore) Name() string {
	return "Badger"
}

// Close はDBを閉じる。
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// compile-time interface check
var _ Store = (*BadgerStore)(nil)
