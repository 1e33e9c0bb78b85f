package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port            string
	SupabaseURL     string
	SupabaseAnonKey string
	MongoDBURI      string
	MongoDBPassword string
	Environment     string
	LogLevel        string

	// Public site URL used to build email verification links
	PublicBaseURL string

	// Comma-separated origin allow-list for CORS
	AllowedOrigins []string

	PaymentSecretKey     string
	PaymentWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	ContactInbox string
}

func LoadConfig() (*Config, error) {
	smtpPort, err := strconv.Atoi(getEnvWithDefault("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %v", err)
	}

	cfg := &Config{
		Port:                 getEnvWithDefault("PORT", "8080"),
		SupabaseURL:          os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:      os.Getenv("SUPABASE_URL_ANON_KEY"),
		MongoDBURI:           os.Getenv("MONGODB_URI"),
		MongoDBPassword:      os.Getenv("MONGODB_PASSWORD"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		PublicBaseURL:        getEnvWithDefault("PUBLIC_BASE_URL", "http://localhost:3000"),
		AllowedOrigins:       splitOrigins(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             smtpPort,
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		EmailFrom:            getEnvWithDefault("EMAIL_FROM", "bookings@openroadrentals.com"),
		ContactInbox:         getEnvWithDefault("CONTACT_INBOX", "info@openroadrentals.com"),
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.PaymentSecretKey == "" {
		return nil, fmt.Errorf("PAYMENT_SECRET_KEY is required")
	}
	if cfg.PaymentWebhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
