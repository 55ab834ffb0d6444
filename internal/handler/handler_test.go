package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/hitoshi/guardify/internal/middleware"
	"github.com/hitoshi/guardify/internal/model"
)

// --- 共通ヘルパー ---

// withIdentity はBearerミドルウェアを通過した状態のリクエストを作る。
func withIdentity(r *http.Request, uid string) *http.Request {
	ctx := middleware.ContextWithIdentity(r.Context(), &model.Identity{UID: uid})
	return r.WithContext(ctx)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

// --- モック定義 ---

type mockLoginService struct {
	loginFn func(ctx context.Context, identity *model.Identity, req *model.LoginRequest) (*model.LoginResponse, error)
}

func (m *mockLoginService) Login(ctx context.Context, identity *model.Identity, req *model.LoginRequest) (*model.LoginResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, identity, req)
	}
	return &model.LoginResponse{Message: "Existing user logged in", User: req.User}, nil
}

type mockLocationService struct {
	addFn func(ctx context.Context, req *model.LocationRequest) (string, error)
}

func (m *mockLocationService) Add(ctx context.Context, req *model.LocationRequest) (string, error) {
	if m.addFn != nil {
		return m.addFn(ctx, req)
	}
	return "key-1", nil
}

type mockUserService struct {
	getFn func(ctx context.Context, uid string) (json.RawMessage, error)
}

func (m *mockUserService) Get(ctx context.Context, uid string) (json.RawMessage, error) {
	if m.getFn != nil {
		return m.getFn(ctx, uid)
	}
	return nil, nil
}

type mockStore struct {
	name    string
	pingErr error
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }
func (m *mockStore) Name() string                 { return m.name }

type mockVerifier struct {
	tokens map[string]string // token -> uid
}

func (m *mockVerifier) Verify(_ context.Context, credential string) (*model.Identity, error) {
	if credential == "" {
		return nil, model.ErrNoIDToken
	}
	uid, ok := m.tokens[credential]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	return &model.Identity{UID: uid}, nil
}
