package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Bonsai"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host            string        `envconfig:"DB_HOST" default:"localhost"`
		Port            int           `envconfig:"DB_PORT" default:"5432"`
		User            string        `envconfig:"DB_USER" default:"postgres"`
		Password        string        `envconfig:"DB_PASSWORD" default:""`
		Name            string        `envconfig:"DB_NAME" default:"bonsai"`
		SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
		// MaxUploadMB caps receipt and CSV uploads.
		MaxUploadMB int64 `envconfig:"MAX_UPLOAD_MB" default:"10"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"168h"`
	}

	Vision struct {
		Provider  string        `envconfig:"VISION_PROVIDER" default:"openai"`
		OpenAIKey string        `envconfig:"OPENAI_API_KEY"`
		GeminiKey string        `envconfig:"GEMINI_API_KEY"`
		Model     string        `envconfig:"VISION_MODEL"`
		BaseURL   string        `envconfig:"VISION_BASE_URL"`
		Timeout   time.Duration `envconfig:"VISION_TIMEOUT" default:"60s"`
	}

	Storage struct {
		// ReceiptBucket is the GCS bucket for receipt images; empty disables archiving.
		ReceiptBucket string `envconfig:"RECEIPT_BUCKET"`
	}

	Emissions struct {
		DefaultBaseline string `envconfig:"DEFAULT_BASELINE" default:"spend"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
