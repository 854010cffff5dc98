package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr          string
	APIBaseURL        string
	RedisAddr         string
	SessionID         string
	KafkaBrokers      []string
	ServiceName       string
	LowStockThreshold int
	CatalogTTL        time.Duration
	DashboardTTL      time.Duration
	PollInterval      time.Duration
	SearchDebounce    time.Duration
	APIRateLimit      int
	LogLevel          string
}

const (
	minDebounce = 300 * time.Millisecond
	maxDebounce = 500 * time.Millisecond
)

func Load() Config {
	return Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8082"),
		APIBaseURL:        getenv("API_BASE_URL", "http://localhost:8080/api/v1"),
		RedisAddr:         getenv("REDIS_ADDR", "redis:6379"),
		SessionID:         getenv("SESSION_ID", "default"),
		KafkaBrokers:      splitCSV(getenv("KAFKA_BROKERS", "kafka:9092")),
		ServiceName:       getenv("SERVICE_NAME", "scent-admin"),
		LowStockThreshold: getenvInt("LOW_STOCK_THRESHOLD", 10),
		CatalogTTL:        getenvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		DashboardTTL:      getenvDuration("DASHBOARD_CACHE_TTL", 60*time.Second),
		PollInterval:      getenvDuration("POLL_INTERVAL", 60*time.Second),
		SearchDebounce:    clamp(getenvDuration("SEARCH_DEBOUNCE", 400*time.Millisecond), minDebounce, maxDebounce),
		APIRateLimit:      getenvInt("API_RATE_LIMIT", 20),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}
}

// NewLogger returns a JSON logger at the given level, falling back to info.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
