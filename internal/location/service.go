// Package location は位置情報の追記処理を提供する。
package location

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/repository"
	"github.com/hitoshi/guardify/internal/validation"
)

// AppendRecorder は位置情報の追記件数を記録するインターフェース。
type AppendRecorder interface {
	RecordLocationAppended()
}

// Service は位置情報のサービス層。
// 座標の範囲や userId の参照先は検証しない。
type Service struct {
	locationRepo repository.LocationRepository
	recorder     AppendRecorder
	now          func() time.Time
}

// NewService はServiceを生成する。recorder はnilでもよい。
func NewService(locationRepo repository.LocationRepository, recorder AppendRecorder) *Service {
	return &Service{
		locationRepo: locationRepo,
		recorder:     recorder,
		now:          time.Now,
	}
}

// Add は位置情報にサーバー時刻のタイムスタンプを付与して locations に追記する。
// 追記されたレコードのキーを返す。userId・latitude・longitude のいずれかが無い場合は
// *model.ValidationError を返し、何も書き込まない。
func (s *Service) Add(ctx context.Context, req *model.LocationRequest) (string, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return "", err
	}

	loc := &model.Location{
		UserID:    *req.UserID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Timestamp: model.FormatTimestamp(s.now()),
	}

	key, err := s.locationRepo.Append(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrStoreWrite, err)
	}

	if s.recorder != nil {
		s.recorder.RecordLocationAppended()
	}

	slog.Debug("位置情報を追加しました",
		slog.String("user_id", loc.UserID),
		slog.String("key", key),
	)

	return key, nil
}
