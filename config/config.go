package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL        string        `env:"DATABASE_URL,required,notEmpty"`
	DatabaseTimeout    time.Duration `env:"DATABASE_TIMEOUT" envDefault:"5s"`
	JWTSecretKey       string        `env:"JWT_SECRET_KEY,required,notEmpty"`
	ServerPort         int           `env:"SERVER_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"tournaments"`

	R2              R2Config      `envPrefix:"R2_"`
	ArchiveInterval time.Duration `env:"ARCHIVE_INTERVAL" envDefault:"1m"`
}

// R2Config - доступ к бакету Cloudflare R2 для архива результатов. Все поля опциональны:
// без них архив отключён.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	BucketName      string `env:"BUCKET_NAME"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.ArchiveInterval <= 0 {
		return nil, fmt.Errorf("ARCHIVE_INTERVAL must be positive, got %s", cfg.ArchiveInterval)
	}

	return &cfg, nil
}
