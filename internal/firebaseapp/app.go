// Package firebaseapp はサービスアカウントからFirebaseアプリを初期化する。
package firebaseapp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// App は初期化済みのFirebaseアプリ。プロセス内で1つだけ生成し、明示的に受け渡す。
type App struct {
	app         *firebase.App
	databaseURL string
}

// New はサービスアカウントのJSONとRealtime DatabaseのURLからAppを生成する。
// databaseURL はレコードストアにFirebaseを使わない場合は空でよい。
func New(ctx context.Context, credentialsJSON []byte, databaseURL string) (*App, error) {
	conf := &firebase.Config{DatabaseURL: databaseURL}

	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	return &App{app: app, databaseURL: databaseURL}, nil
}

// Auth はIDトークン検証に使用するAuthクライアントを返す。
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return client, nil
}

// Database はRealtime Databaseクライアントを返す。
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	if a.databaseURL == "" {
		return nil, fmt.Errorf("firebase database URL is not configured")
	}
	client, err := a.app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase database client: %w", err)
	}
	return client, nil
}
