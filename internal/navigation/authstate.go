package navigation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardify/internal/model"
)

// SessionCookieName はブラウザがIDトークンを送るCookie名。
// 画面遷移（ページ読み込み）ではAuthorizationヘッダーを付けられないため、Cookieでも受け付ける。
const SessionCookieName = "__session"

// CredentialVerifier はIDトークンの検証インターフェース。auth.Verifierがこれを満たす。
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*model.Identity, error)
}

// AuthState はリクエスト時点のログイン状態を返す。
// 判定前に一度だけ呼び出し、結果が確定してから遷移を決める。
type AuthState interface {
	Current(ctx context.Context, r *http.Request) (*model.Identity, error)
}

// RequestAuthState はリクエストの資格情報からログイン状態を解決するAuthState。
type RequestAuthState struct {
	verifier CredentialVerifier
}

// NewRequestAuthState はRequestAuthStateを生成する。
func NewRequestAuthState(verifier CredentialVerifier) *RequestAuthState {
	return &RequestAuthState{verifier: verifier}
}

// Current はAuthorizationヘッダー、無ければ __session Cookie の資格情報を検証する。
// 資格情報が無い・無効な場合は未ログイン（nil, nil）として扱う。
func (s *RequestAuthState) Current(ctx context.Context, r *http.Request) (*model.Identity, error) {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			credential = cookie.Value
		}
	}

	identity, err := s.verifier.Verify(ctx, credential)
	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, model.ErrNoIDToken), errors.Is(err, model.ErrInvalidToken):
		return nil, nil
	default:
		slog.Warn("ログイン状態の解決に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
}

// compile-time interface check
var _ AuthState = (*RequestAuthState)(nil)
