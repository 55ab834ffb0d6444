// Package navigation はフロントエンド（SPA）の画面遷移ガードを提供する。
// 遷移先ごとに、そのまま表示するかリダイレクトするかを判定する。
package navigation

import "strings"

// Route はSPAの画面定義。
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool // 未ログインならログイン画面へ
	AdminOnly    bool // isAdmin でなければトップへ
}

// Routes はSPAの画面一覧。
var Routes = []Route{
	{Path: "/", Name: "Welcome"},
	{Path: "/signup", Name: "Signup"},
	{Path: "/start-tracked", Name: "StartTracked"},
	{Path: "/emergency-alert", Name: "EmergencyAlert", RequiresAuth: true},
	{Path: "/home", Name: "Home"},
	{Path: "/live-map", Name: "LiveMap"},
	{Path: "/admin", Name: "Admin", AdminOnly: true},
	{Path: "/show-map", Name: "ShowMap"},
}

// Lookup はパスに一致する画面を返す。末尾のスラッシュは無視する。
func Lookup(path string) (Route, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, route := range Routes {
		if route.Path == path {
			return route, true
		}
	}
	return Route{}, false
}
