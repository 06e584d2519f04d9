package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret    string
	Port         string
	DatabasePath string
	LogLevel     string

	AccessTokenExpiry time.Duration

	// Filter engine tunables.
	FilterChunkSize       int
	FilterWorkerThreshold int
	FilterWorkerCount     int
	FilterCacheTTL        time.Duration
	FilterCacheCapacity   int

	// Reconciliation: which tab-separated column carries the amount.
	// The default matches the spreadsheet layout the finance team exports.
	ReconMoneyColumn int

	ReportCacheExpiry time.Duration

	EmailServiceProvider string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string

	SettlementReportRecipient string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	accessTokenExpiry := getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute)

	filterChunkSize := getEnvAsInt("FILTER_CHUNK_SIZE", 200)
	if filterChunkSize < 1 {
		log.Printf("WARNING: FILTER_CHUNK_SIZE must be positive, got %d. Using default 200.", filterChunkSize)
		filterChunkSize = 200
	}
	filterCacheCapacity := getEnvAsInt("FILTER_CACHE_CAPACITY", 10)
	if filterCacheCapacity < 1 {
		log.Printf("WARNING: FILTER_CACHE_CAPACITY must be positive, got %d. Using default 10.", filterCacheCapacity)
		filterCacheCapacity = 10
	}

	reconMoneyColumn := getEnvAsInt("RECON_MONEY_COLUMN", 1)
	if reconMoneyColumn < 0 {
		log.Printf("WARNING: RECON_MONEY_COLUMN must not be negative, got %d. Using default 1.", reconMoneyColumn)
		reconMoneyColumn = 1
	}

	Cfg = &AppConfig{
		JWTSecret:    jwtSecret,
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./moneydesk.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		AccessTokenExpiry: accessTokenExpiry,

		FilterChunkSize:       filterChunkSize,
		FilterWorkerThreshold: getEnvAsInt("FILTER_WORKER_THRESHOLD", 1000),
		FilterWorkerCount:     getEnvAsInt("FILTER_WORKER_COUNT", 1),
		FilterCacheTTL:        getEnvAsDuration("FILTER_CACHE_TTL", 30*time.Second),
		FilterCacheCapacity:   filterCacheCapacity,

		ReconMoneyColumn: reconMoneyColumn,

		ReportCacheExpiry: getEnvAsDuration("REPORT_CACHE_EXPIRY", 15*time.Minute),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "MoneyDesk"),

		SettlementReportRecipient: getEnv("SETTLEMENT_REPORT_RECIPIENT", ""),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, ChunkSize=%d, WorkerThreshold=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.FilterChunkSize, Cfg.FilterWorkerThreshold)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
