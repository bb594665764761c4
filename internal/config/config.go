package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default CORS origins for local development, matching the standard
// frontend dev servers. ALLOWED_ORIGINS extends this list.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
}

// Config holds application configuration
type Config struct {
	// Project
	ProjectName string
	Version     string
	Environment string
	Debug       bool
	OnRender    bool

	// HTTP
	ServerPort     string
	AllowedOrigins []string
	EnableHSTS     bool

	// Security
	SecretKey          string
	Algorithm          string
	AccessTokenExpires int // minutes

	// Storage
	DatabaseURL string
	RedisURL    string
	RabbitMQURL string
	Prefetch    int

	// Uploads
	UploadDir   string
	MaxFileSize int64

	// Mail
	MailUsername string
	MailPassword string
	MailFrom     string
	MailServer   string
	MailPort     int

	// AI
	OpenAIKey string
	AIModel   string
	AIBaseURL string

	// Telemetry
	OTELEnabled  bool
	OTELEndpoint string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ProjectName: "CA Compliance Management System",
		Version:     "1.0.0",
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvBool("DEBUG", true),
		OnRender:    getEnvBool("RENDER", false),

		// Render injects PORT; SERVER_PORT is the local override.
		ServerPort:     getEnv("PORT", getEnv("SERVER_PORT", "8000")),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		EnableHSTS:     getEnvBool("ENABLE_HSTS", false),

		SecretKey:          getEnv("SECRET_KEY", ""),
		Algorithm:          getEnv("ALGORITHM", "HS256"),
		AccessTokenExpires: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		Prefetch:    getEnvInt("RABBITMQ_PREFETCH", 1),

		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),

		MailUsername: getEnv("MAIL_USERNAME", ""),
		MailPassword: getEnv("MAIL_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", ""),
		MailServer:   getEnv("MAIL_SERVER", ""),
		MailPort:     getEnvInt("MAIL_PORT", 587),

		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", ""),
		AIBaseURL: getEnv("AI_BASE_URL", ""),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		cfg.SecretKey = "dev-secret-key-change-in-production"
	}

	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported ALGORITHM %q: must be HS256, HS384 or HS512", cfg.Algorithm)
	}

	if cfg.AccessTokenExpires <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", cfg.AccessTokenExpires)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
// A Render deployment is treated as production regardless of ENVIRONMENT.
func (c *Config) IsProduction() bool {
	return c.OnRender || strings.EqualFold(c.Environment, "production")
}

// MailConfigured reports whether enough mail settings are present to send email
func (c *Config) MailConfigured() bool {
	return c.MailServer != "" && c.MailUsername != "" && c.MailPassword != ""
}

// parseOrigins merges the comma-separated ALLOWED_ORIGINS value with the
// development defaults, dropping empties and duplicates.
func parseOrigins(raw string) []string {
	origins := make([]string, 0, len(defaultOrigins)+4)
	seen := make(map[string]bool)
	add := func(origin string) {
		origin = strings.TrimSpace(origin)
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}
	for _, o := range defaultOrigins {
		add(o)
	}
	for _, o := range strings.Split(raw, ",") {
		add(o)
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
