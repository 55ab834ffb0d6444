package model

import (
	"errors"
	"fmt"
	"strings"
)

// 認証・設定・永続化のエラー分類。
// レスポンス本文は人間向けの文字列のままとし、構造化コードは返さない。
var (
	// ErrNoIDToken はAuthorizationヘッダーが無い場合のエラー（HTTP 401）。
	ErrNoIDToken = errors.New("no ID token")

	// ErrInvalidToken はIDトークンの検証に失敗した場合のエラー（HTTP 401）。
	// 期限切れ・不正形式・失効を区別しない。
	ErrInvalidToken = errors.New("invalid token")

	// ErrStoreWrite はレコードストアへの書き込みに失敗した場合のエラー（HTTP 500）。
	ErrStoreWrite = errors.New("store write failure")

	// ErrUserNotFound は users/{uid} のレコードが存在しない場合のエラー。
	ErrUserNotFound = errors.New("user not found")

	// ErrConfigurationMissing は起動に必要な設定が無い場合のエラー。プロセスは終了する。
	ErrConfigurationMissing = errors.New("configuration missing")
)

// ValidationError はリクエストボディの検証エラーを表す（HTTP 400）。
type ValidationError struct {
	Fields []string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Fields, "; "))
}
