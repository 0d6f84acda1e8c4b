package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"simonserver/models"

	"github.com/spf13/viper"
)

// LoadConfig は設定ファイル(JSON)と SIMON_ で始まる環境変数から設定を読み込みます。
// path が空、またはファイルが存在しない場合はデフォルト値と環境変数だけを使います。
func LoadConfig(path string) (*models.Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SIMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required (env: SIMON_AUTH_JWT_SECRET)")
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.public_url", "http://localhost:3000")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "simon")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("database.retry_interval", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 72*time.Hour)

	v.SetDefault("game.purge_schedule", "0 3 * * *")
	v.SetDefault("game.finished_retention", 48*time.Hour)

	v.SetDefault("log.development", false)
}
