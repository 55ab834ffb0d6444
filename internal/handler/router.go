package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/guardify/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier           middleware.IdentityVerifier
	AuthRecorder       middleware.AuthFailureRecorder
	HTTPRecorder       middleware.HTTPRecorder
	CORSAllowedOrigins []string
	// LocationLimiter が nil の場合、/add-location はレート制限しない
	LocationLimiter *middleware.RateLimiter

	// サービス
	LoginService    LoginServiceInterface
	LocationService LocationServiceInterface
	UserService     UserServiceInterface
	Store           StorePinger

	// MetricsHandler が nil の場合、/metrics は公開しない
	MetricsHandler http.Handler
	// Frontend が nil の場合、SPAは配信しない
	Frontend http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Metrics → SecurityHeaders → CORS → (route) Bearer / RateLimit
//
// アクセスログとpanicリカバリはサーバー側（app.Run）で最外周に適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	healthHandler := NewHealthHandler(deps.Store)
	authHandler := NewAuthHandler(deps.LoginService)
	locationHandler := NewLocationHandler(deps.LocationService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---
	r.Get("/test", healthHandler.Test)
	r.Get("/health", healthHandler.Health)

	// 位置情報の追加は認証しない
	if deps.LocationLimiter != nil {
		r.With(deps.LocationLimiter.Middleware()).Post("/add-location", locationHandler.AddLocation)
	} else {
		r.Post("/add-location", locationHandler.AddLocation)
	}

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerMiddleware(deps.Verifier, deps.AuthRecorder))

		r.Post("/login", authHandler.Login)
		r.Get("/user", userHandler.GetUser)
	})

	// --- フロントエンド（SPA） ---
	if deps.Frontend != nil {
		r.Handle("/", deps.Frontend)
		r.Handle("/*", deps.Frontend)
	}

	return r
}
