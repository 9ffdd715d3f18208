package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	JWTSecretKey string        `env:"JWT_SECRET_KEY"`
	JWTAlgorithm string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"30m"`

	OTPLength  int           `env:"OTP_LENGTH" envDefault:"6"`
	OTPTTL     time.Duration `env:"OTP_TTL" envDefault:"0s"` // 0 keeps codes valid until consumed
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	SNSRegion  string `env:"SNS_REGION" envDefault:"us-east-1"`
	SMSEnabled bool   `env:"SMS_ENABLED" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users     string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	Usernames string `env:"DYNAMO_TABLE_USERNAMES" envDefault:"usernames"`
	Addresses string `env:"DYNAMO_TABLE_ADDRESSES" envDefault:"user_addresses"`
	Coupons   string `env:"DYNAMO_TABLE_COUPONS" envDefault:"coupons"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return nil, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", cfg.OTPLength)
	}
	return &cfg, nil
}
