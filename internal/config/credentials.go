package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hitoshi/guardify/internal/model"
)

// LoadServiceAccount はサービスアカウントの認証情報（JSON）を読み込む。
// ServiceAccountFile が存在すればそれを使い、無ければ ServiceAccountKey（JSON文字列）を使う。
// どちらも無い場合は model.ErrConfigurationMissing を返す。
func (c *Config) LoadServiceAccount() ([]byte, error) {
	if c.ServiceAccountFile != "" {
		data, err := os.ReadFile(c.ServiceAccountFile)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read service account file %s: %w", c.ServiceAccountFile, err)
		}
	}

	if c.ServiceAccountKey == "" {
		return nil, fmt.Errorf("%w: service account file %q not found and FIREBASE_SERVICE_ACCOUNT_KEY is not set",
			model.ErrConfigurationMissing, c.ServiceAccountFile)
	}

	return normalizeServiceAccountKey([]byte(c.ServiceAccountKey))
}

// normalizeServiceAccountKey は環境変数経由で渡されたJSONの private_key に含まれる
// エスケープされた改行（\\n）を実際の改行に戻す。
func normalizeServiceAccountKey(raw []byte) ([]byte, error) {
	var account map[string]any
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("failed to parse FIREBASE_SERVICE_ACCOUNT_KEY: %w", err)
	}

	if key, ok := account["private_key"].(string); ok {
		account["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}

	data, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account: %w", err)
	}
	return data, nil
}
