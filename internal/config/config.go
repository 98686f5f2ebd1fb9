package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	JWTSecret       string
	TokenTTLMinutes int
	CrawlAPIURL     string
	AllowedOrigins  string
}

// Load reads .env (if present) and the environment, and returns the
// resulting configuration. The result is passed explicitly to each
// component at startup.
func Load() *Config {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "sentiment.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTLMinutes: getEnvAsInt("TOKEN_TTL_MINUTES", 60),
		CrawlAPIURL:     getEnv("CRAWL_API", "http://localhost:8090"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	return cfg
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
