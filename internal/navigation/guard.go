package navigation

import (
	"context"
	"log/slog"

	"github.com/hitoshi/guardify/internal/model"
)

// DefaultLoginPath は認証が必要な画面に未ログインでアクセスした場合の遷移先。
const DefaultLoginPath = "/login"

// homePath は管理画面の権限が無い場合の遷移先。
const homePath = "/"

// AdminChecker は管理者フラグの参照インターフェース。
// user.Serviceがこれを満たす。
type AdminChecker interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

// Decision は遷移判定の結果。Redirect が空の場合はそのまま表示する。
type Decision struct {
	Redirect string
}

// Allowed は遷移を許可するかを返す。
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard は画面遷移の可否を判定する。
type Guard struct {
	admins    AdminChecker
	loginPath string
}

// NewGuard はGuardを生成する。loginPath が空の場合は DefaultLoginPath を使う。
func NewGuard(admins AdminChecker, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Guard{admins: admins, loginPath: loginPath}
}

// Decide は遷移先と現在のIdentity（未ログインならnil）から遷移可否を判定する。
// 全画面共通のルールを画面固有のルールより先に評価する。
func (g *Guard) Decide(ctx context.Context, route Route, identity *model.Identity) Decision {
	// 全画面共通: 認証必須の画面は未ログインならログイン画面へ
	if route.RequiresAuth && identity == nil {
		return Decision{Redirect: g.loginPath}
	}

	// 管理画面: 未ログイン・isAdmin なし・参照失敗はすべてトップへ
	if route.AdminOnly {
		if identity == nil {
			return Decision{Redirect: homePath}
		}
		isAdmin, err := g.admins.IsAdmin(ctx, identity.UID)
		if err != nil {
			slog.Warn("管理者フラグの取得に失敗しました",
				slog.String("user_id", identity.UID),
				slog.String("error", err.Error()),
			)
			return Decision{Redirect: homePath}
		}
		if !isAdmin {
			return Decision{Redirect: homePath}
		}
	}

	return Decision{}
}
