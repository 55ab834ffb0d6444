package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardify/internal/auth"
	"github.com/hitoshi/guardify/internal/config"
	"github.com/hitoshi/guardify/internal/database"
	"github.com/hitoshi/guardify/internal/firebaseapp"
	"github.com/hitoshi/guardify/internal/handler"
	"github.com/hitoshi/guardify/internal/location"
	"github.com/hitoshi/guardify/internal/logger"
	"github.com/hitoshi/guardify/internal/metrics"
	"github.com/hitoshi/guardify/internal/middleware"
	"github.com/hitoshi/guardify/internal/navigation"
	"github.com/hitoshi/guardify/internal/recordstore"
	"github.com/hitoshi/guardify/internal/repository"
	"github.com/hitoshi/guardify/internal/user"
	"github.com/prometheus/client_golang/prometheus"
)

// openStore は設定されたバックエンドのレコードストアを開く。
// サーキットブレーカーとメトリクス（recorder が nil でなければ）で包んで返す。
// Firebaseバックエンドの場合は fbApp が必要。
func openStore(ctx context.Context, cfg *config.Config, fbApp *firebaseapp.App, recorder recordstore.OperationRecorder) (recordstore.Store, error) {
	var store recordstore.Store

	switch cfg.StoreBackend {
	case config.BackendFirebase:
		if fbApp == nil {
			return nil, fmt.Errorf("firebase backend requires an initialized firebase app")
		}
		client, err := fbApp.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize realtime database client: %w", err)
		}
		store = recordstore.NewFirebaseStore(client)

	case config.BackendPostgres:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to migrate record store: %w", err)
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = recordstore.NewPostgresStore(db)

	case config.BackendBadger:
		s, err := recordstore.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		store = s

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}

	store = recordstore.WithBreaker(store, recordstore.BreakerConfig{
		FailureThreshold: uint32(cfg.StoreBreakerThreshold),
		OpenTimeout:      cfg.StoreBreakerTimeout,
	})
	if recorder != nil {
		store = recordstore.WithMetrics(store, recorder)
	}

	return store, nil
}

// serverDeps はHTTPハンドラーの構築に必要な外部依存。
type serverDeps struct {
	verifier  *auth.Verifier
	store     recordstore.Store
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
}

// newHTTPHandler はサービスとルーターを構築し、最外周にリカバリとアクセスログを適用したハンドラーを返す。
// 返される関数はバックグラウンド処理（レートリミッターのクリーンアップ）を停止する。
func newHTTPHandler(w io.Writer, cfg *config.Config, deps *serverDeps) (http.Handler, func()) {
	// リポジトリ・サービス
	userRepo := repository.NewStoreUserRepo(deps.store)
	locationRepo := repository.NewStoreLocationRepo(deps.store)

	loginService := auth.NewService(userRepo, deps.collector)
	locationService := location.NewService(locationRepo, deps.collector)
	userService := user.NewService(userRepo)

	routerDeps := &handler.RouterDeps{
		Verifier:           deps.verifier,
		AuthRecorder:       deps.collector,
		HTTPRecorder:       deps.collector,
		CORSAllowedOrigins: cfg.AllowedOrigins(),

		LoginService:    loginService,
		LocationService: locationService,
		UserService:     userService,
		Store:           deps.store,
	}
	if deps.gatherer != nil {
		routerDeps.MetricsHandler = metrics.Handler(deps.gatherer)
	}

	cleanup := func() {}
	if cfg.LocationRateLimit > 0 {
		limiter := middleware.NewRateLimiter("add-location", middleware.PerMinuteConfig(cfg.LocationRateLimit))
		routerDeps.LocationLimiter = limiter
		cleanup = limiter.Stop
	}

	// フロントエンド（ビルド済みSPA）を同一オリジンで配信する場合のみ画面遷移ガードを有効にする
	if cfg.FrontendDir != "" {
		guard := navigation.NewGuard(userService, cfg.NavLoginPath)
		routerDeps.Frontend = navigation.NewHandler(guard, navigation.NewRequestAuthState(deps.verifier), cfg.FrontendDir)
		slog.Info("serving frontend",
			slog.String("dir", cfg.FrontendDir),
			slog.String("login_path", cfg.NavLoginPath),
		)
	}

	router := handler.NewRouter(routerDeps)

	accessLogger := logger.Setup(w, logger.ParseLevel(cfg.LogLevel))
	var h http.Handler = router
	h = middleware.NewRecoveryMiddleware()(h)
	h = middleware.NewLoggingMiddleware(accessLogger)(h)

	return h, cleanup
}
