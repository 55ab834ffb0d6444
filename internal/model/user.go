// Package model はドメインモデルを定義する。
package model

import "time"

// TimestampLayout はレコードに保存するISO-8601タイムスタンプの書式。
// UTC・ミリ秒精度（例: 2024-05-01T12:34:56.789Z）。
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp は時刻をレコード保存用の文字列に変換する。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Identity は外部IdPで検証済みの利用者情報を表す。
// IDトークンの検証結果からのみ生成される。
type Identity struct {
	UID         string
	DisplayName string
	Email       string
}

// User は users/{uid} に保存されるユーザーレコード。
// IsAdmin はシステム外（管理コマンドやコンソール）でのみ設定される。
type User struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
}

// LoginUser はログインリクエストでクライアントが送信するユーザー情報。
// レスポンスにはこの値がそのまま返される。
type LoginUser struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// LoginRequest は POST /login のリクエストボディ。
type LoginRequest struct {
	IsNewUser bool      `json:"isNewUser"`
	User      LoginUser `json:"user"`
}

// LoginResponse は POST /login のレスポンスボディ。User はリクエストの値をそのまま返す。
type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
}
