package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/hitoshi/guardify/internal/auth"
	"github.com/hitoshi/guardify/internal/config"
	"github.com/hitoshi/guardify/internal/metrics"
	"github.com/hitoshi/guardify/internal/recordstore"
	"github.com/prometheus/client_golang/prometheus"
)

// --- モック定義 ---

type stubTokens struct{}

func (stubTokens) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if idToken != "token-u1" {
		return nil, errors.New("invalid signature")
	}
	return &fbauth.Token{UID: "u1"}, nil
}

// --- テスト環境 ---

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:            "5000",
		ShutdownTimeout:       time.Second,
		StoreBackend:          config.BackendBadger,
		StoreBreakerThreshold: 5,
		StoreBreakerTimeout:   time.Second,
		CORSAllowedOrigins:    "*",
		NavLoginPath:          "/login",
		LogLevel:              "info",
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) (http.Handler, *bytes.Buffer) {
	t.Helper()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	store, err := openStore(context.Background(), cfg, nil, collector)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var logs bytes.Buffer
	h, cleanup := newHTTPHandler(&logs, cfg, &serverDeps{
		verifier:  auth.NewVerifier(stubTokens{}),
		store:     store,
		collector: collector,
		gatherer:  registry,
	})
	t.Cleanup(cleanup)

	return h, &logs
}

func do(h http.Handler, method, path, body, token string) *http.Response {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(b)
}

// --- openStore テスト ---

func TestOpenStore_Badger_InMemory(t *testing.T) {
	store, err := openStore(context.Background(), testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer store.Close()

	if store.Name() != "Badger" {
		t.Errorf("Name() = %q, want %q", store.Name(), "Badger")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpenStore_FirebaseWithoutApp_ReturnsError(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = config.BackendFirebase

	if _, err := openStore(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error when firebase app is missing")
	}
}

func TestOpenStore_UnknownBackend_ReturnsError(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = "mysql"

	if _, err := openStore(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

// --- newHTTPHandler テスト ---

func TestHTTPHandler_TestEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, testConfig())

	resp := do(h, http.MethodGet, "/test", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := bodyOf(t, resp); got != "Badger connected and server is running!" {
		t.Errorf("body = %q", got)
	}
}

func TestHTTPHandler_LoginIsLoggedAndCounted(t *testing.T) {
	h, logs := newTestHandler(t, testConfig())

	resp := do(h, http.MethodPost, "/login",
		`{"isNewUser":true,"user":{"uid":"u1","displayName":"Alice","email":"a@x.com"}}`, "Bearer token-u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, http.StatusOK, bodyOf(t, resp))
	}

	if !strings.Contains(logs.String(), `"user_id":"u1"`) {
		t.Errorf("access log should contain user_id, got %s", logs.String())
	}

	metricsBody := bodyOf(t, do(h, http.MethodGet, "/metrics", "", ""))
	for _, want := range []string{
		"guardify_users_registered_total 1",
		`guardify_store_operations_total{backend="Badger",op="set",result="success"} 1`,
		`guardify_http_requests_total{method="POST",route="/login",status_code="200"} 1`,
	} {
		if !strings.Contains(metricsBody, want) {
			t.Errorf("metrics should contain %q", want)
		}
	}
}

func TestHTTPHandler_AuthFailureCounted(t *testing.T) {
	h, _ := newTestHandler(t, testConfig())

	if resp := do(h, http.MethodGet, "/user", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	metricsBody := bodyOf(t, do(h, http.MethodGet, "/metrics", "", ""))
	if !strings.Contains(metricsBody, `guardify_auth_failures_total{reason="missing_token"} 1`) {
		t.Errorf("metrics should count missing token failure, got:\n%s", metricsBody)
	}
}

func TestHTTPHandler_LocationRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.LocationRateLimit = 1
	h, _ := newTestHandler(t, cfg)

	body := `{"userId":"u1","latitude":1,"longitude":2}`
	if resp := do(h, http.MethodPost, "/add-location", body, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp := do(h, http.MethodPost, "/add-location", body, ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
}

func TestHTTPHandler_FrontendGuard(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>guardify</html>"), 0o600); err != nil {
		t.Fatalf("failed to write index.html: %v", err)
	}

	cfg := testConfig()
	cfg.FrontendDir = dir
	h, _ := newTestHandler(t, cfg)

	tests := []struct {
		name         string
		path         string
		token        string
		wantStatus   int
		wantLocation string
	}{
		{"protected route without login", "/emergency-alert", "", http.StatusFound, "/login"},
		{"protected route with login", "/emergency-alert", "token-u1", http.StatusOK, ""},
		{"admin route for non-admin", "/admin", "token-u1", http.StatusFound, "/"},
		{"public route", "/home", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(h, http.MethodGet, tt.path, "", tt.token)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := resp.Header.Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestOpenStore_InvalidPathDoesNotTripBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBreakerThreshold = 1

	store, err := openStore(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer store.Close()

	// 不正なパスはストア到達前に失敗するため、回路の状態には影響しない
	if err := store.Set(context.Background(), "users/a.b", map[string]string{}); !errors.Is(err, recordstore.ErrInvalidPath) {
		t.Errorf("Set() error = %v, want ErrInvalidPath", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
