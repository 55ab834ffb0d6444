// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/guardify/internal/model"
)

// 401レスポンスの本文。
const (
	MessageNoIDToken    = "Unauthorized: No ID token"
	MessageInvalidToken = "Unauthorized: Invalid token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに検証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityVerifier はリクエストの資格情報を検証するインターフェース。
// auth.Verifierの部分集合として定義する。
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*model.Identity, error)
}

// AuthFailureRecorder は認証失敗の件数を記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// NewBearerMiddleware はAuthorizationヘッダーのIDトークンを検証するミドルウェアを返す。
// 検証済みIdentityをリクエストコンテキストに注入する。
// ヘッダーが無い場合・検証に失敗した場合は401を返し、後続のハンドラーは実行しない。
func NewBearerMiddleware(verifier IdentityVerifier, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				reason, message := "invalid_token", MessageInvalidToken
				if errors.Is(err, model.ErrNoIDToken) {
					reason, message = "missing_token", MessageNoIDToken
				}
				if recorder != nil {
					recorder.RecordAuthFailure(reason)
				}
				WriteText(w, http.StatusUnauthorized, message)
				return
			}

			setRequestUserID(r.Context(), identity.UID)
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから検証済みIdentityを取得する。
// Bearerミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil || identity.UID == "" {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
