package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Redis backs the mock-auth record, role-change pub/sub and the cache health check.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	// MockAuth is read once here and decides which session resolver gets built.
	// Nothing checks it per request.
	MockAuth bool

	// OAuth clients, keyed by provider name (google, kakao, naver).
	OAuth          map[string]OAuthClient
	OAuthReturnURL string

	// Account promoted to ADMIN at startup, if it exists.
	AdminSocialProvider string
	AdminSocialID       string

	OpenAIAPIKey string
	OpenAIModel  string

	OTELEndpoint    string
	OTELSampleRatio float64
	ServiceName     string
	AllowedOrigin   []string

	MonitoringURL      string
	MonitoringInterval time.Duration
	WorkerConcurrency  int
	WorkerHealthAddr   string
	AutoMigrate        bool
	RateLimitPerMinute int
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		RedisAddr:     redisAddr(),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 14),

		MockAuth: getEnvBool("MOCK_AUTH_ENABLED", false) && env != "prod",

		OAuth: map[string]OAuthClient{
			"google": loadOAuthClient("GOOGLE"),
			"kakao":  loadOAuthClient("KAKAO"),
			"naver":  loadOAuthClient("NAVER"),
		},
		OAuthReturnURL: getEnv("OAUTH_RETURN_URL", ""),

		AdminSocialProvider: getEnv("ADMIN_SOCIAL_PROVIDER", ""),
		AdminSocialID:       getEnv("ADMIN_SOCIAL_ID", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		ServiceName:     getEnv("SERVICE_NAME", "learnhub-api"),
		AllowedOrigin:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		MonitoringURL:      getEnv("MONITORING_URL", ""),
		MonitoringInterval: time.Duration(getEnvInt("MONITORING_INTERVAL_SECONDS", 60)) * time.Second,
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthAddr:   getEnv("WORKER_HEALTH_ADDR", ":8081"),
		AutoMigrate:        getEnvBool("AUTO_MIGRATE", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "learnhub")
	pass := getEnv("DB_PASSWORD", "learnhub")
	name := getEnv("DB_NAME", "learnhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// REDIS_ADDR=off runs without redis; mock auth then falls back to memory.
func redisAddr() string {
	addr := getEnv("REDIS_ADDR", "127.0.0.1:6379")
	if strings.EqualFold(addr, "off") {
		return ""
	}
	return addr
}

func loadOAuthClient(prefix string) OAuthClient {
	return OAuthClient{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", ""),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
