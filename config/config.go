package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Auth              AuthConfig
	Gateway           GatewayConfig
	Payments          PaymentsConfig
	Redis             RedisConfig
	AMQP              AMQPConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

// GatewayConfig selects the credential mode and shapes outbound gateway calls.
// Credentials themselves live in the database and are resolved per operation.
type GatewayConfig struct {
	Mode         string
	HTTPTimeout  time.Duration
	Language     string
	CallbackPath string
	PaymentsPath string
}

type PaymentsConfig struct {
	Currency            string
	PendingTimeout      time.Duration
	ReconcileStaleAfter time.Duration
	ReuseWindow         time.Duration
	InitiateLockTTL     time.Duration
	JobBatchSize        int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL             string
	SettlementQueue string
}

type JobsConfig struct {
	ReconcileInterval     time.Duration
	ExpirePendingInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET environment variable is required")
	}

	mode := strings.ToLower(strings.TrimSpace(getEnv("GATEWAY_MODE", "test")))
	if mode != "test" && mode != "production" {
		return nil, fmt.Errorf("GATEWAY_MODE must be test or production, got %q", mode)
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "book-payments-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
			AdminRole: getEnv("AUTH_ADMIN_ROLE", "admin"),
		},
		Gateway: GatewayConfig{
			Mode:         mode,
			HTTPTimeout:  getSecondsEnv("GATEWAY_HTTP_TIMEOUT_SECONDS", 30*time.Second),
			Language:     getEnv("GATEWAY_LANGUAGE", "ro"),
			CallbackPath: getEnv("GATEWAY_CALLBACK_PATH", "/payments/callback"),
			PaymentsPath: getEnv("GATEWAY_PAYMENTS_PATH", "/payments"),
		},
		Payments: PaymentsConfig{
			Currency:            strings.ToUpper(getEnv("PAYMENTS_CURRENCY", "MDL")),
			PendingTimeout:      getMinutesEnv("PAYMENTS_PENDING_TIMEOUT_MINUTES", 60*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			ReuseWindow:         getMinutesEnv("PAYMENTS_REUSE_WINDOW_MINUTES", 10*time.Minute),
			InitiateLockTTL:     getSecondsEnv("PAYMENTS_INITIATE_LOCK_TTL_SECONDS", 45*time.Second),
			JobBatchSize:        int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		AMQP: AMQPConfig{
			URL:             getEnv("AMQP_URL", ""),
			SettlementQueue: getEnv("AMQP_SETTLEMENT_QUEUE", "book-payments.settlements"),
		},
		Jobs: JobsConfig{
			ReconcileInterval:     getMinutesEnv("PAYMENTS_RECONCILE_INTERVAL_MINUTES", 2*time.Minute),
			ExpirePendingInterval: getMinutesEnv("PAYMENTS_EXPIRE_PENDING_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
