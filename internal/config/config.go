package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

const (
	DefaultMealDBURL    = "https://www.themealdb.com/api/json/v1/1"
	DefaultDatabasePath = "data/flavor-vault.db"
	DefaultStorageDir   = "data/store"
	DefaultPort         = "8080"
)

// Config holds the configuration for the application.
type Config struct {
	MealDBBaseURL string

	StorageBackend string
	DatabasePath   string
	DatabaseURL    string
	StorageDir     string

	Port               string
	CORSAllowedOrigins []string

	ShareSecret  string
	ShareBaseURL string

	GeminiAPIKey string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// Load reads a .env file from the working directory when present and then
// builds the Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}
	return NewFromEnv()
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	shareSecret := os.Getenv("SHARE_SECRET")
	if shareSecret == "" {
		return nil, fmt.Errorf("SHARE_SECRET environment variable not set")
	}

	backend := getEnv("STORAGE_BACKEND", BackendSQLite)
	switch backend {
	case BackendSQLite, BackendFile:
	case BackendPostgres:
		if os.Getenv("DATABASE_URL") == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", backend)
	}

	allowed, err := parseUserIDs(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	port := getEnv("PORT", DefaultPort)

	return &Config{
		MealDBBaseURL:          strings.TrimRight(getEnv("MEALDB_BASE_URL", DefaultMealDBURL), "/"),
		StorageBackend:         backend,
		DatabasePath:           getEnv("DATABASE_PATH", DefaultDatabasePath),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		StorageDir:             getEnv("STORAGE_DIR", DefaultStorageDir),
		Port:                   port,
		CORSAllowedOrigins:     splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		ShareSecret:            shareSecret,
		ShareBaseURL:           strings.TrimRight(getEnv("SHARE_BASE_URL", "http://localhost:"+port), "/"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
	}, nil
}

// DataPath returns the file or directory holding persisted user state, or ""
// when the state lives in a remote database.
func (c *Config) DataPath() string {
	switch c.StorageBackend {
	case BackendFile:
		return c.StorageDir
	case BackendSQLite:
		return c.DatabasePath
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseUserIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
