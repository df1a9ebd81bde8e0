package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oreoinsight/backoffice/internal/models"
)

const defaultTokenTTLMillis = 3_600_000

type Config struct {
	HTTPAddr string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// JWTSecret is held in memory only and must never be logged.
	JWTSecret []byte
	TokenTTL  time.Duration

	KafkaAddress string

	ESURL      string
	ESUser     string
	ESPassword string

	SMTPAddr string
	SMTPFrom string

	SummaryCron    string
	SummaryEmailTo string

	ModelsURL   string
	ModelID     string
	GithubToken string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		KafkaAddress:   os.Getenv("KAFKA_ADDRESS"),
		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		SMTPAddr:       os.Getenv("SMTP_ADDR"),
		SMTPFrom:       getenv("SMTP_FROM", "no-reply@oreoinsight.com"),
		SummaryCron:    getenv("SUMMARY_CRON", "0 8 * * 1"),
		SummaryEmailTo: os.Getenv("SUMMARY_EMAIL_TO"),
		ModelsURL:      os.Getenv("GITHUB_MODELS_URL"),
		ModelID:        os.Getenv("MODEL_ID"),
		GithubToken:    os.Getenv("GITHUB_TOKEN"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("missing required env JWT_SECRET")
	}

	ttlMillis := int64(defaultTokenTTLMillis)
	if raw := os.Getenv("JWT_TTL_MILLIS"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL_MILLIS %q: %w", raw, err)
		}
		ttlMillis = parsed
	}
	cfg.TokenTTL = time.Duration(ttlMillis) * time.Millisecond

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Account{}, &models.Sale{}, &models.ReportRequest{},
	); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return db, nil
}
