package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	ProxmoxHost        string
	ProxmoxPort        int
	ProxmoxTokenID     string
	ProxmoxTokenSecret string
	ProxmoxInsecureTLS bool
	ProxmoxTimeout     time.Duration

	JwtSecret string

	LogLevel  string
	LogFormat string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelServiceName string
	OtelInsecure    bool
	OtelEnv         string

	Version string
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		ProxmoxHost:        getEnv("PROXMOX_HOST", ""),
		ProxmoxPort:        getEnvInt("PROXMOX_PORT", 8006),
		ProxmoxTokenID:     getEnv("PROXMOX_TOKEN_ID", ""),
		ProxmoxTokenSecret: getEnv("PROXMOX_TOKEN_SECRET", ""),
		ProxmoxInsecureTLS: getEnvBool("PROXMOX_INSECURE_TLS", false),
		ProxmoxTimeout:     getEnvDuration("PROXMOX_TIMEOUT", 30*time.Second),

		JwtSecret: getEnv("JWT_SECRET", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		OtelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelServiceName: getEnv("OTEL_SERVICE_NAME", "pveman"),
		OtelInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelEnv:         getEnv("OTEL_ENV", "development"),

		Version: getEnv("VERSION", "dev"),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
