package navigation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoshi/guardify/internal/model"
)

// --- モック定義 ---

type mockAuthState struct {
	identity *model.Identity
	err      error
	calls    int
}

func (m *mockAuthState) Current(_ context.Context, _ *http.Request) (*model.Identity, error) {
	m.calls++
	return m.identity, m.err
}

const testIndex = "<!doctype html><div id=app></div>"

func setupFrontend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(testIndex), 0o644); err != nil {
		t.Fatalf("failed to write index.html: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatalf("failed to create assets dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("failed to write app.js: %v", err)
	}
	return dir
}

func serve(h http.Handler, method, path string) *http.Response {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

// --- テスト ---

func TestHandler_GuardedView_SignedOut_Redirects(t *testing.T) {
	auth := &mockAuthState{}
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), auth, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/emergency-alert")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
	if auth.calls != 1 {
		t.Errorf("auth state resolved %d times, want 1", auth.calls)
	}
}

func TestHandler_AdminView_NotAdmin_RedirectsHome(t *testing.T) {
	auth := &mockAuthState{identity: &model.Identity{UID: "u1"}}
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), auth, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/admin")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}
}

func TestHandler_AdminView_Admin_ServesIndex(t *testing.T) {
	auth := &mockAuthState{identity: &model.Identity{UID: "u1"}}
	admins := &mockAdminChecker{
		isAdminFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
	}
	h := NewHandler(NewGuard(admins, ""), auth, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/admin")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != testIndex {
		t.Errorf("body = %q, want index.html", string(body))
	}
}

func TestHandler_AuthStateError_TreatedAsSignedOut(t *testing.T) {
	auth := &mockAuthState{err: errors.New("unavailable")}
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), auth, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/emergency-alert")

	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
}

func TestHandler_StaticAsset(t *testing.T) {
	auth := &mockAuthState{}
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), auth, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/assets/app.js")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "console.log(1)" {
		t.Errorf("body = %q, want asset content", string(body))
	}
	if auth.calls != 0 {
		t.Errorf("static assets should not resolve auth state, got %d calls", auth.calls)
	}
}

func TestHandler_UnknownPath_FallsBackToIndex(t *testing.T) {
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), &mockAuthState{}, setupFrontend(t))

	resp := serve(h, http.MethodGet, "/login")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != testIndex {
		t.Errorf("body = %q, want index.html", string(body))
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(NewGuard(&mockAdminChecker{}, ""), &mockAuthState{}, setupFrontend(t))

	resp := serve(h, http.MethodPost, "/home")

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
