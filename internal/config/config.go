package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	Environment   string `envconfig:"ENVIRONMENT" default:"production"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	JWTSecret       string        `envconfig:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"storefront-media"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `envconfig:"STRIPE_CURRENCY" default:"usd"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""` // comma separated; empty disables publishing
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"storefront.events"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:""` // empty logs mail instead of sending
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	MailFrom     string `envconfig:"MAIL_FROM" default:"no-reply@storefront.local"`
	ContactInbox string `envconfig:"CONTACT_INBOX" default:"contact@storefront.local"`

	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
	CartSessionTTL    time.Duration `envconfig:"CART_SESSION_TTL" default:"336h"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.LowStockThreshold <= 0 {
		return errors.New("LOW_STOCK_THRESHOLD must be positive")
	}
	return nil
}

// KafkaBrokerList splits KAFKA_BROKERS, dropping blanks
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// IsDevelopment reports whether verbose development defaults apply
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}
