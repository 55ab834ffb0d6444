package navigation

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Handler はSPAの配信と画面遷移ガードを行うHTTPハンドラー。
// ガード対象の画面は判定結果に応じて302でリダイレクトするか index.html を返す。
// それ以外のパスは静的ファイルを返し、ファイルが無ければ index.html にフォールバックする。
type Handler struct {
	guard *Guard
	auth  AuthState
	dir   string
	files http.Handler
}

// NewHandler はHandlerを生成する。dir はビルド済みフロントエンドのディレクトリ。
func NewHandler(guard *Guard, auth AuthState, dir string) *Handler {
	return &Handler{
		guard: guard,
		auth:  auth,
		dir:   dir,
		files: http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP はhttp.Handlerインターフェースを実装する。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	route, ok := Lookup(r.URL.Path)
	if !ok {
		h.serveStatic(w, r)
		return
	}

	// ログイン状態を確定させてから判定する
	identity, err := h.auth.Current(r.Context(), r)
	if err != nil {
		identity = nil
	}

	if decision := h.guard.Decide(r.Context(), route, identity); !decision.Allowed() {
		http.Redirect(w, r, decision.Redirect, http.StatusFound)
		return
	}

	h.serveIndex(w, r)
}

func (h *Handler) serveStatic(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err != nil || info.IsDir() {
		h.serveIndex(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
