package recordstore

import (
	"context"
	"time"
)

// OperationRecorder はストア操作のメトリクスを記録するインターフェース。
// metrics.Collector が実装する。
type OperationRecorder interface {
	RecordStoreOperation(backend, op string, err error, duration time.Duration)
}

// instrumentedStore は各操作の結果とレイテンシを記録する。
type instrumentedStore struct {
	next     Store
	recorder OperationRecorder
}

// WithMetrics は next の各操作を recorder に記録するStoreを返す。
func WithMetrics(next Store, recorder OperationRecorder) Store {
	if recorder == nil {
		return next
	}
	return &instrumentedStore{next: next, recorder: recorder}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.recorder.RecordStoreOperation(s.next.Name(), op, err, time.Since(start))
}

func (s *instrumentedStore) Set(ctx context.Context, path string, value any) error {
	start := time.Now()
	err := s.next.Set(ctx, path, value)
	s.observe("set", start, err)
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	start := time.Now()
	found, err := s.next.Get(ctx, path, dst)
	s.observe("get", start, err)
	return found, err
}

func (s *instrumentedStore) Update(ctx context.Context, path string, fields map[string]any) error {
	start := time.Now()
	err := s.next.Update(ctx, path, fields)
	s.observe("update", start, err)
	return err
}

func (s *instrumentedStore) Push(ctx context.Context, parent string, value any) (string, error) {
	start := time.Now()
	key, err := s.next.Push(ctx, parent, value)
	s.observe("push", start, err)
	return key, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *instrumentedStore) Name() string {
	return s.next.Name()
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
