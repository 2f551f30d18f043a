package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tekdi/user-microservice-sub001/apperrors"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	SearchIndexURL  string
	SearchIndexName string
	SearchUsername  string
	SearchPassword  string

	TrackingServiceURL   string
	AssessmentServiceURL string
	CollaboratorToken    string // bearer token for tracking/assessment calls

	DefaultTenantID       string
	DefaultOrganisationID string

	UpstreamTimeout time.Duration
	ResyncCron      string
	ResyncPageSize  int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "users"),
		DBPort:     getEnv("DB_PORT", "5432"),

		SearchIndexURL:  getEnv("SEARCH_INDEX_URL", ""),
		SearchIndexName: getEnv("SEARCH_INDEX_NAME", "users"),
		SearchUsername:  getEnv("SEARCH_USERNAME", ""),
		SearchPassword:  getEnv("SEARCH_PASSWORD", ""),

		TrackingServiceURL:   getEnv("TRACKING_SERVICE_URL", ""),
		AssessmentServiceURL: getEnv("ASSESSMENT_SERVICE_URL", ""),
		CollaboratorToken:    getEnv("COLLABORATOR_TOKEN", ""),

		DefaultTenantID:       getEnv("DEFAULT_TENANT_ID", "default-tenant"),
		DefaultOrganisationID: getEnv("DEFAULT_ORGANISATION_ID", "default-org"),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		ResyncCron:      getEnv("RESYNC_CRON", "0 2 * * *"),
		ResyncPageSize:  getEnvInt("RESYNC_PAGE_SIZE", 200),
	}

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SearchIndexURL == "" {
		return &apperrors.ConfigurationError{Key: "SEARCH_INDEX_URL", Message: "search index URL is required"}
	}
	if AppConfig.CollaboratorToken == "" {
		log.Println("Warning: COLLABORATOR_TOKEN not set. Tracking and assessment fetches will be skipped.")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
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

// getEnvDuration retrieves an environment variable as a duration or returns the default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}
