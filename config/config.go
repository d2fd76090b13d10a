package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL  string
	DemoFallback bool

	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins []string

	AWSRegion      string
	S3Region       string
	S3Bucket       string
	CloudFrontURL  string
	SESSender      string
	SNSPlatformARN string
	Rekognition    bool

	GeminiAPIKey string
	GeminiModel  string

	OFFBaseURL   string
	OFFUserAgent string
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	ttlHours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "72"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS %q", os.Getenv("JWT_TTL_HOURS"))
	}
	demo, err := strconv.ParseBool(getEnv("DEMO_FALLBACK", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEMO_FALLBACK: %w", err)
	}
	rekognition, err := strconv.ParseBool(getEnv("REKOGNITION_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REKOGNITION_ENABLED: %w", err)
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", buildDSN()),
		DemoFallback:   demo,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         time.Duration(ttlHours) * time.Hour,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		CloudFrontURL:  os.Getenv("CLOUDFRONT_URL"),
		SESSender:      os.Getenv("SES_EMAIL"),
		SNSPlatformARN: os.Getenv("SNS_PLATFORM_ARN"),
		Rekognition:    rekognition,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OFFBaseURL:     getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		OFFUserAgent:   getEnv("OFF_USER_AGENT", "pantrytrack/1.0 (+https://github.com/pantrytrack)"),
	}
	cfg.S3Region = getEnv("S3_REGION", cfg.AWSRegion)
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }

// buildDSN assembles a Postgres DSN from the discrete DB_* variables.
// Returns "" when DB_HOST is not set.
func buildDSN() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
