package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	Env     string // dev or prod, selects the logger mode
	AppName string

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDSN      string // overrides the discrete DB_* fields when set

	JWTKey string

	StorageDriver        string // local or gcs
	StorageLocalDir      string
	StoragePublicBaseURL string
	GCSBucket            string
	GCSCredentialsFile   string

	UploadMaxFiles  int
	UploadMaxFileMB int

	SendGridAPIKey string
	EmailSender    string
	WebhookURL     string

	AssetReaperSpec string
	OrderAuditSpec  string
}

// AppConfig is the configuration loaded by main. Services receive values, never this pointer.
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:    getEnv("PORT", "3000"),
		Env:     getEnv("APP_ENV", "dev"),
		AppName: getEnv("APP_NAME", "LearnHub"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "learnhub"),
		DBDSN:      getEnv("DB_DSN", ""),

		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		StorageDriver:        strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StorageLocalDir:      getEnv("STORAGE_LOCAL_DIR", "./public/uploads"),
		StoragePublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
		GCSBucket:            getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:   getEnv("GCS_CREDENTIALS_FILE", ""),

		UploadMaxFiles:  getEnvInt("UPLOAD_MAX_FILES", 10),
		UploadMaxFileMB: getEnvInt("UPLOAD_MAX_FILE_MB", 10),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),

		AssetReaperSpec: getEnv("ASSET_REAPER_SPEC", "@every 10m"),
		OrderAuditSpec:  getEnv("ORDER_AUDIT_SPEC", "@hourly"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.StorageDriver == "gcs" && AppConfig.GCSBucket == "" {
		log.Println("Warning: STORAGE_DRIVER=gcs without GCS_BUCKET.")
	}

	return AppConfig
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case "sqlite":
		return c.DBName + ".db?_foreign_keys=on"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	}
}

// MaxUploadBytes is the per-file upload ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.UploadMaxFileMB) * 1024 * 1024
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
