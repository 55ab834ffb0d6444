package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/guardify/internal/auth"
	"github.com/hitoshi/guardify/internal/config"
	"github.com/hitoshi/guardify/internal/database"
	"github.com/hitoshi/guardify/internal/firebaseapp"
	"github.com/hitoshi/guardify/internal/logger"
	"github.com/hitoshi/guardify/internal/metrics"
	"github.com/hitoshi/guardify/internal/repository"
	"github.com/hitoshi/guardify/internal/user"
	"github.com/hitoshi/guardify/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// defaultPort は PORT 未設定時のポート番号。
const defaultPort = "5000"

// Init はアプリケーションの初期化を行う。
// 設定を読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. デフォルト値・設定ファイル・環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、ログ初期化やストア接続をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckPort())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandGrantAdmin:
		return runGrantAdmin(cfg, args[1:])
	default:
		return runServe(w, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// サービスアカウントでFirebaseを初期化し、レコードストアを開き、全依存関係をワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(w io.Writer, cfg *config.Config) error {
	ctx := context.Background()

	// 1. Firebaseの初期化（認証情報が無い場合は起動しない）
	fbApp, err := newFirebaseApp(ctx, cfg)
	if err != nil {
		return err
	}

	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	verifier := auth.NewVerifier(authClient)

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. レコードストア
	store, err := openStore(ctx, cfg, fbApp, collector)
	if err != nil {
		return err
	}
	defer store.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		// 起動は継続し、/health で状態を公開する
		slog.Warn("record store is not reachable",
			slog.String("backend", store.Name()),
			slog.String("error", err.Error()),
		)
	} else {
		slog.Info("record store connection established",
			slog.String("backend", store.Name()),
		)
	}
	cancelPing()

	// 4. ルーターの構築
	handler, cleanup := newHTTPHandler(w, cfg, &serverDeps{
		verifier:  verifier,
		store:     store,
		collector: collector,
		gatherer:  registry,
	})
	defer cleanup()

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はPostgreSQLバックエンドのマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("migrate requires DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration failed: schema version %d is dirty", version)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runGrantAdmin は users/{uid} に isAdmin を設定する。
// 管理者フラグはAPIからは設定できないため、運用者がこのサブコマンドで付与する。
func runGrantAdmin(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grant-admin <uid>")
	}
	uid := args[0]
	if !validation.IsRecordKey(uid) {
		return fmt.Errorf("invalid uid %q", uid)
	}

	ctx := context.Background()

	var fbApp *firebaseapp.App
	if cfg.StoreBackend == config.BackendFirebase {
		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			return err
		}
		fbApp = app
	}

	store, err := openStore(ctx, cfg, fbApp, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	userService := user.NewService(repository.NewStoreUserRepo(store))
	if err := userService.GrantAdmin(ctx, uid); err != nil {
		return fmt.Errorf("failed to grant admin to %s: %w", uid, err)
	}

	slog.Info("admin granted",
		slog.String("user_id", uid),
	)
	return nil
}

// newFirebaseApp はサービスアカウントを読み込んでFirebaseアプリを初期化する。
func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebaseapp.App, error) {
	credentials, err := cfg.LoadServiceAccount()
	if err != nil {
		return nil, err
	}

	app, err := firebaseapp.New(ctx, credentials, cfg.FirebaseDatabaseURL)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// healthcheckPort はserveと同じ設定（デフォルト値・設定ファイル・環境変数）から待ち受けポートを求める。
// 設定を読み込めない場合はデフォルトポートを使う。
func healthcheckPort() string {
	cfg, err := config.Load()
	if err != nil || cfg.ServerPort == "" {
		return defaultPort
	}
	return cfg.ServerPort
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
