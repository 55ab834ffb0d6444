package recordstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig はサーキットブレーカーの設定。
type BreakerConfig struct {
	// FailureThreshold は回路を開くまでの連続失敗回数。0の場合はブレーカーを使用しない。
	FailureThreshold uint32
	// OpenTimeout は回路を開いてから半開状態に移行するまでの時間。
	OpenTimeout time.Duration
}

// breakerStore はストア操作をサーキットブレーカーで保護する。
// 失敗した操作を再試行することはなく、回路が開いている間は即座にエラーを返す。
type breakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// WithBreaker は next をサーキットブレーカーで包んだStoreを返す。
func WithBreaker(next Store, cfg BreakerConfig) Store {
	if cfg.FailureThreshold == 0 {
		return next
	}

	settings := gobreaker.Settings{
		Name:        "recordstore-" + next.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("record store circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// 呼び出し側の誤りやキャンセルはストア障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidPath) ||
				errors.Is(err, context.Canceled)
		},
	}

	return &breakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *breakerStore) Set(ctx context.Context, path string, value any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Set(ctx, path, value)
	})
	return err
}

func (b *breakerStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx, path, dst)
	})
	if err != nil {
		return false, err
	}
	found, _ := res.(bool)
	return found, nil
}

func (b *breakerStore) Update(ctx context.Context, path string, fields map[string]any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Update(ctx, path, fields)
	})
	return err
}

func (b *breakerStore) Push(ctx context.Context, parent string, value any) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Push(ctx, parent, value)
	})
	if err != nil {
		return "", err
	}
	key, _ := res.(string)
	return key, nil
}

// Ping はブレーカーを通さない。ヘルスチェックで回復を検知できるようにするため。
func (b *breakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *breakerStore) Name() string {
	return b.next.Name()
}

func (b *breakerStore) Close() error {
	return b.next.Close()
}
