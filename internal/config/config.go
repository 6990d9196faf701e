package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payments PaymentsConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

type PaymentsConfig struct {
	// Provider selects the gateway integration: "hmac" (checkout-callback
	// signature scheme) or "stripe".
	Provider        string
	KeyID           string
	Secret          string
	StripeSecretKey string
	QRSecret        string
	VerifyAttempts  int
	VerifyBackoff   time.Duration
}

type AuthConfig struct {
	OIDCIssuer string
	AdminRole  string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8084"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
		},
		Payments: PaymentsConfig{
			Provider:        getEnv("PAYMENT_PROVIDER", "hmac"),
			KeyID:           getEnv("PAYMENT_KEY_ID", ""),
			Secret:          getEnv("PAYMENT_SECRET", ""),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			QRSecret:        getEnv("QR_SECRET_KEY", "eventhub-dev-secret"),
			VerifyAttempts:  getEnvInt("PAYMENT_VERIFY_ATTEMPTS", 3),
			VerifyBackoff:   time.Duration(getEnvInt("PAYMENT_VERIFY_BACKOFF_MS", 200)) * time.Millisecond,
		},
		Auth: AuthConfig{
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
			AdminRole:  getEnv("ADMIN_ROLE", "admin"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
