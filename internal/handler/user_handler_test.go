package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/guardify/internal/model"
)

// --- GET /user テスト ---

func TestUserHandler_GetUser_Exists(t *testing.T) {
	svc := &mockUserService{
		getFn: func(_ context.Context, uid string) (json.RawMessage, error) {
			if uid != "u1" {
				t.Errorf("uid = %q, want %q", uid, "u1")
			}
			return json.RawMessage(`{"uid":"u1","name":"Alice","email":"a@x.com","createdAt":"2024-01-01T00:00:00.000Z"}`), nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req = withIdentity(req, "u1")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		User *model.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.User == nil || body.User.Name != "Alice" {
		t.Errorf("user = %+v, want Alice", body.User)
	}
}

func TestUserHandler_GetUser_EchoesFieldsOutsideUserModel(t *testing.T) {
	svc := &mockUserService{
		getFn: func(_ context.Context, _ string) (json.RawMessage, error) {
			return json.RawMessage(`{"uid":"u9","phone":"+1555","isAdmin":"yes"}`), nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req = withIdentity(req, "u9")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	want := "{\"user\":{\"uid\":\"u9\",\"phone\":\"+1555\",\"isAdmin\":\"yes\"}}\n"
	if body := readBody(t, resp); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestUserHandler_GetUser_Absent_ReturnsNull(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req = withIdentity(req, "ghost")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if body := readBody(t, resp); body != "{\"user\":null}\n" {
		t.Errorf("body = %q, want %q", body, "{\"user\":null}\n")
	}
}

func TestUserHandler_GetUser_StoreFailure_Returns500(t *testing.T) {
	svc := &mockUserService{
		getFn: func(_ context.Context, _ string) (json.RawMessage, error) {
			return nil, errors.New("unavailable")
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req = withIdentity(req, "u1")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if body := readBody(t, resp); body != "Error fetching user" {
		t.Errorf("body = %q, want %q", body, "Error fetching user")
	}
}

func TestUserHandler_GetUser_NoIdentity_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
