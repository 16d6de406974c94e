package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "APP_ENV", "LOG_LEVEL", "TAX_RATE", "STRICT_DRAFT_STATUS", "DATABASE_URL", "DB_MAX_CONNS", "REDIS_DRAFT_TTL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Addr != ":9091" || cfg.Env != "production" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if !cfg.TaxRate.Equal(decimal.New(10, -2)) {
		t.Fatalf("tax rate %s", cfg.TaxRate)
	}
	if cfg.StrictDraft {
		t.Fatalf("strict draft must default to false")
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("db max conns %d", cfg.DBMaxConns)
	}
	if cfg.RedisDraftTTL != 12*time.Hour {
		t.Fatalf("ttl %s", cfg.RedisDraftTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors %v", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("TAX_RATE", "0.11")
	t.Setenv("STRICT_DRAFT_STATUS", "true")
	t.Setenv("REDIS_DRAFT_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg := Load()
	if cfg.Addr != ":8080" || !cfg.StrictDraft || cfg.DBMaxConns != 25 {
		t.Fatalf("unexpected %+v", cfg)
	}
	if !cfg.TaxRate.Equal(decimal.RequireFromString("0.11")) {
		t.Fatalf("tax rate %s", cfg.TaxRate)
	}
	if cfg.RedisDraftTTL != 30*time.Minute || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("durations %s %s", cfg.RedisDraftTTL, cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors %v", cfg.CORSOrigins)
	}
}

func TestGetters_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "-1s")
	t.Setenv("X_DEC", "-0.5")

	if GetInt("X_INT", 3) != 3 {
		t.Fatalf("int fallback")
	}
	if !GetBool("X_BOOL", true) {
		t.Fatalf("bool fallback")
	}
	if GetDuration("X_DUR", time.Second) != time.Second {
		t.Fatalf("duration fallback")
	}
	if !GetDecimal("X_DEC", decimal.Zero).IsZero() {
		t.Fatalf("negative rate accepted")
	}
	if GetString("X_MISSING_KEY", "d") != "d" {
		t.Fatalf("string fallback")
	}
}
