package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// レコードストアのバックエンド名。
const (
	BackendFirebase = "firebase"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// ConfigPathEnvVar は設定ファイルのパスを指定する環境変数。
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPath は CONFIG_PATH 未指定時に探索する設定ファイル。
const defaultConfigPath = "config.yaml"

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort      string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Firebase
	FirebaseDatabaseURL string `koanf:"firebase_database_url"`
	ServiceAccountFile  string `koanf:"firebase_service_account_file"`
	ServiceAccountKey   string `koanf:"firebase_service_account_key"`

	// Record store
	StoreBackend          string        `koanf:"store_backend"`
	DatabaseURL           string        `koanf:"database_url"`
	BadgerPath            string        `koanf:"badger_path"`
	StoreBreakerThreshold int           `koanf:"store_breaker_threshold"`
	StoreBreakerTimeout   time.Duration `koanf:"store_breaker_timeout"`

	// CORS（カンマ区切り）
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// Rate Limit（req/min/IP、0で無効）
	LocationRateLimit int `koanf:"location_rate_limit"`

	// Frontend
	FrontendDir  string `koanf:"frontend_dir"`
	NavLoginPath string `koanf:"nav_login_path"`

	// Logging
	LogLevel string `koanf:"log_level"`
}

// knownKeys は環境変数から読み込むキーの一覧。
// 無関係な環境変数を設定に取り込まないよう、ここに無いキーは無視する。
var knownKeys = map[string]bool{
	"port":                          true,
	"shutdown_timeout":              true,
	"firebase_database_url":         true,
	"firebase_service_account_file": true,
	"firebase_service_account_key":  true,
	"store_backend":                 true,
	"database_url":                  true,
	"badger_path":                   true,
	"store_breaker_threshold":       true,
	"store_breaker_timeout":         true,
	"cors_allowed_origins":          true,
	"location_rate_limit":           true,
	"frontend_dir":                  true,
	"nav_login_path":                true,
	"log_level":                     true,
}

// defaultConfig はデフォルト値を設定したConfigを返す。
func defaultConfig() *Config {
	return &Config{
		ServerPort:            "5000",
		ShutdownTimeout:       30 * time.Second,
		ServiceAccountFile:    "./serviceAccountKey.json",
		StoreBackend:          BackendFirebase,
		StoreBreakerThreshold: 5,
		StoreBreakerTimeout:   30 * time.Second,
		CORSAllowedOrigins:    "*",
		LocationRateLimit:     0,
		NavLoginPath:          "/login",
		LogLevel:              "info",
	}
}

// Load はデフォルト値 → 設定ファイル（任意） → 環境変数 の順に設定を読み込む。
// 後から読み込んだ値が優先される。必須項目が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	k := koanf.New(".")

	// 1. デフォルト値
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. 設定ファイル（存在する場合のみ）
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. 環境変数（PORT -> port, FIREBASE_DATABASE_URL -> firebase_database_url）
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は必須項目と値の範囲を検証する。
func (c *Config) Validate() error {
	var missing []string

	switch c.StoreBackend {
	case BackendFirebase:
		if c.FirebaseDatabaseURL == "" {
			missing = append(missing, "FIREBASE_DATABASE_URL")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendBadger:
		// BADGER_PATH が空の場合はインメモリで起動する
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (want %s, %s or %s)",
			c.StoreBackend, BackendFirebase, BackendPostgres, BackendBadger)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if c.LocationRateLimit < 0 {
		return fmt.Errorf("LOCATION_RATE_LIMIT must not be negative: %d", c.LocationRateLimit)
	}
	if c.StoreBreakerThreshold < 0 {
		return fmt.Errorf("STORE_BREAKER_THRESHOLD must not be negative: %d", c.StoreBreakerThreshold)
	}

	return nil
}

// AllowedOrigins はCORS許可オリジンをスライスで返す。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// envTransformFunc は環境変数名を設定キーに変換する。
// 既知のキー以外は空文字を返し、読み込み対象から除外する。
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if !knownKeys[key] {
		return ""
	}
	return key
}

// findConfigFile は読み込む設定ファイルのパスを返す。見つからない場合は空文字を返す。
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
