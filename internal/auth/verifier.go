package auth

import (
	"context"
	"log/slog"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/hitoshi/guardify/internal/model"
)

// TokenVerifier は外部IdPによるIDトークン検証のインターフェース。
// 本番では *firebase auth.Client がこれを満たす。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Verifier はリクエストの資格情報（IDトークン）を検証し、Identityに変換する。
type Verifier struct {
	tokens TokenVerifier
}

// NewVerifier はVerifierを生成する。
func NewVerifier(tokens TokenVerifier) *Verifier {
	return &Verifier{tokens: tokens}
}

// Verify は資格情報を検証してIdentityを返す。
// 資格情報はAuthorizationヘッダーの値そのもので、"Bearer " が付いていれば除去する。
// 空の場合は外部呼び出しを行わずに model.ErrNoIDToken を返す。
// 検証失敗は理由を問わず model.ErrInvalidToken を返し、原因はログにのみ出力する。
func (v *Verifier) Verify(ctx context.Context, credential string) (*model.Identity, error) {
	token := extractToken(credential)
	if token == "" {
		return nil, model.ErrNoIDToken
	}

	decoded, err := v.tokens.VerifyIDToken(ctx, token)
	if err != nil {
		slog.Warn("IDトークンの検証に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.ErrInvalidToken
	}
	if decoded == nil || decoded.UID == "" {
		return nil, model.ErrInvalidToken
	}

	return &model.Identity{
		UID:         decoded.UID,
		DisplayName: stringClaim(decoded.Claims, "name"),
		Email:       stringClaim(decoded.Claims, "email"),
	}, nil
}

// extractToken はAuthorizationヘッダーの値からトークン部分を取り出す。
func extractToken(credential string) string {
	credential = strings.TrimSpace(credential)
	if len(credential) > 7 && strings.EqualFold(credential[:7], "Bearer ") {
		return strings.TrimSpace(credential[7:])
	}
	return credential
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
