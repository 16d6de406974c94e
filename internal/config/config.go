package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config настройки процесса, читаются из окружения
type Config struct {
	Addr            string
	Env             string
	LogLevel        string
	TaxRate         decimal.Decimal
	StrictDraft     bool
	DatabaseURL     string
	DBMaxConns      int
	RedisAddr       string
	RedisDraftTTL   time.Duration
	RabbitMQURL     string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load подхватывает .env (если есть) и переменные окружения
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            GetString("HTTP_ADDR", ":9091"),
		Env:             GetString("APP_ENV", "production"),
		LogLevel:        GetString("LOG_LEVEL", "info"),
		TaxRate:         GetDecimal("TAX_RATE", decimal.New(10, -2)),
		StrictDraft:     GetBool("STRICT_DRAFT_STATUS", false),
		DatabaseURL:     GetString("DATABASE_URL", ""),
		DBMaxConns:      GetInt("DB_MAX_CONNS", 10),
		RedisAddr:       GetString("REDIS_ADDR", ""),
		RedisDraftTTL:   GetDuration("REDIS_DRAFT_TTL", 12*time.Hour),
		RabbitMQURL:     GetString("RABBITMQ_URL", ""),
		CORSOrigins:     GetList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		ShutdownTimeout: GetDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// GetString пустое значение считается незаданным
func GetString(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func GetBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetDecimal отрицательные ставки не принимаются
func GetDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(val))
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d
}

// GetList comma separated, blanks dropped
func GetList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
