package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	setEnv(t, "AUTH_JWT_SECRET", "secret")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/books?parseTime=true")
	unsetEnv(t, "AUTH_JWT_SECRET")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing AUTH_JWT_SECRET")
	}
}

func TestLoadRejectsUnknownGatewayMode(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/books?parseTime=true")
	setEnv(t, "AUTH_JWT_SECRET", "secret")
	setEnv(t, "GATEWAY_MODE", "sandbox")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid GATEWAY_MODE")
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/books?parseTime=true")
	setEnv(t, "AUTH_JWT_SECRET", "secret")
	unsetEnv(t, "GATEWAY_MODE")
	unsetEnv(t, "GATEWAY_HTTP_TIMEOUT_SECONDS")
	unsetEnv(t, "PAYMENTS_CURRENCY")
	unsetEnv(t, "REDIS_ADDR")
	unsetEnv(t, "AMQP_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Gateway.Mode != "test" {
		t.Fatalf("expected test mode by default, got %s", cfg.Gateway.Mode)
	}
	if cfg.Gateway.HTTPTimeout != 30*time.Second {
		t.Fatalf("expected 30s gateway timeout, got %v", cfg.Gateway.HTTPTimeout)
	}
	if cfg.Gateway.Language != "ro" {
		t.Fatalf("unexpected gateway language: %s", cfg.Gateway.Language)
	}
	if cfg.Payments.Currency != "MDL" {
		t.Fatalf("unexpected currency: %s", cfg.Payments.Currency)
	}
	if cfg.Redis.Addr != "" || cfg.AMQP.URL != "" {
		t.Fatalf("expected optional integrations disabled, got redis=%q amqp=%q", cfg.Redis.Addr, cfg.AMQP.URL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/books?parseTime=true")
	setEnv(t, "AUTH_JWT_SECRET", "secret")
	setEnv(t, "APP_SERVICE_NAME", "book-payments-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "GRPC_PORT", "9191")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "GATEWAY_MODE", "Production")
	setEnv(t, "GATEWAY_HTTP_TIMEOUT_SECONDS", "12")
	setEnv(t, "PAYMENTS_CURRENCY", "eur")
	setEnv(t, "PAYMENTS_PENDING_TIMEOUT_MINUTES", "11")
	setEnv(t, "PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", "13")
	setEnv(t, "PAYMENTS_INITIATE_LOCK_TTL_SECONDS", "20")
	setEnv(t, "PAYMENTS_JOB_BATCH_SIZE", "99")
	setEnv(t, "REDIS_ADDR", "localhost:6379")
	setEnv(t, "REDIS_DB", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "book-payments-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" || cfg.GRPC.Port != "9191" {
		t.Fatalf("unexpected ports: http=%s grpc=%s", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Gateway.Mode != "production" {
		t.Fatalf("expected normalized production mode, got %s", cfg.Gateway.Mode)
	}
	if cfg.Gateway.HTTPTimeout != 12*time.Second {
		t.Fatalf("unexpected gateway timeout: %v", cfg.Gateway.HTTPTimeout)
	}
	if cfg.Payments.Currency != "EUR" {
		t.Fatalf("unexpected currency: %s", cfg.Payments.Currency)
	}
	if cfg.Payments.PendingTimeout != 11*time.Minute {
		t.Fatalf("unexpected pending timeout: %v", cfg.Payments.PendingTimeout)
	}
	if cfg.Payments.ReconcileStaleAfter != 13*time.Minute {
		t.Fatalf("unexpected reconcile stale after: %v", cfg.Payments.ReconcileStaleAfter)
	}
	if cfg.Payments.InitiateLockTTL != 20*time.Second {
		t.Fatalf("unexpected initiate lock ttl: %v", cfg.Payments.InitiateLockTTL)
	}
	if cfg.Payments.JobBatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Payments.JobBatchSize)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
}
