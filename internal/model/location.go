package model

// Location は locations リストに追記される位置情報レコード。
// UserID の参照先ユーザーが存在するかは検証しない。
type Location struct {
	UserID    string  `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

// LocationRequest は POST /add-location のリクエストボディ。
// キーが無い場合と null の場合を区別できるようポインタで受ける。0 や空文字列は有効な値。
type LocationRequest struct {
	UserID    *string  `json:"userId" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// LocationUserID はログ用に userId を返す。未指定の場合は空文字列。
func (r *LocationRequest) LocationUserID() string {
	if r == nil || r.UserID == nil {
		return ""
	}
	return *r.UserID
}
