// Package auth はIDトークンの検証とログイン（初回登録）処理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/guardify/internal/model"
	"github.com/hitoshi/guardify/internal/repository"
)

// ログイン結果のメッセージ。
const (
	MessageNewUser      = "New user saved to database"
	MessageExistingUser = "Existing user logged in"
)

// RegistrationRecorder は新規登録の件数を記録するインターフェース。
type RegistrationRecorder interface {
	RecordUserRegistered()
}

// Service はログインに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	recorder RegistrationRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。recorder はnilでもよい。
func NewService(userRepo repository.UserRepository, recorder RegistrationRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Login はログインを処理する。
// IsNewUser の場合は users/{uid} を無条件に上書きする（既存の isAdmin 等は失われる）。
// 既存ユーザーの場合はストアにアクセスしない。
// 送信された uid と検証済み uid の一致は確認しない（不一致はWARNログのみ）。
func (s *Service) Login(ctx context.Context, identity *model.Identity, req *model.LoginRequest) (*model.LoginResponse, error) {
	if identity != nil && req.User.UID != "" && req.User.UID != identity.UID {
		slog.Warn("送信されたuidが検証済みuidと一致しません",
			slog.String("user_id", identity.UID),
			slog.String("submitted_uid", req.User.UID),
		)
	}

	if !req.IsNewUser {
		return &model.LoginResponse{Message: MessageExistingUser, User: req.User}, nil
	}

	user := &model.User{
		UID:       req.User.UID,
		Name:      req.User.DisplayName,
		Email:     req.User.Email,
		CreatedAt: model.FormatTimestamp(s.now()),
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStoreWrite, err)
	}

	if s.recorder != nil {
		s.recorder.RecordUserRegistered()
	}

	slog.Info("新規ユーザーを登録しました",
		slog.String("user_id", user.UID),
	)

	return &model.LoginResponse{Message: MessageNewUser, User: req.User}, nil
}
