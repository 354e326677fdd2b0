package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Mail (Brevo)
	BrevoAPIKey   string
	MailFromAddr  string
	MailFromName  string
	MailBatchSize int

	// Fan-out
	FanoutPageSize  int
	FanoutQueueSize int

	// Upload (GCS)
	GCSBucket     string
	CDNBaseURL    string
	UploadMaxSize int64
	ImportTimeout time.Duration

	// Sheets（空の場合はフォーム転送を無効化する）
	SheetsSpreadsheetID string

	// Rate Limit
	RateLimitAdmin  int
	RateLimitPublic int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.BrevoAPIKey = os.Getenv("BREVO_API_KEY")
	if cfg.BrevoAPIKey == "" {
		missing = append(missing, "BREVO_API_KEY")
	}

	cfg.MailFromAddr = os.Getenv("MAIL_FROM_ADDRESS")
	if cfg.MailFromAddr == "" {
		missing = append(missing, "MAIL_FROM_ADDRESS")
	}

	cfg.GCSBucket = os.Getenv("GCS_BUCKET")
	if cfg.GCSBucket == "" {
		missing = append(missing, "GCS_BUCKET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 2592000) // 30日
	cfg.MailFromName = getEnvString("MAIL_FROM_NAME", "JBBC")
	cfg.MailBatchSize = getEnvInt("MAIL_BATCH_SIZE", 100)
	cfg.FanoutPageSize = getEnvInt("FANOUT_PAGE_SIZE", 500)
	cfg.FanoutQueueSize = getEnvInt("FANOUT_QUEUE_SIZE", 32)
	cfg.CDNBaseURL = getEnvString("CDN_BASE_URL", "https://storage.googleapis.com/"+cfg.GCSBucket)
	cfg.UploadMaxSize = getEnvInt64("UPLOAD_MAX_SIZE", 5242880)
	cfg.ImportTimeout = getEnvDuration("IMPORT_TIMEOUT", 10*time.Second)
	cfg.SheetsSpreadsheetID = getEnvString("SHEETS_SPREADSHEET_ID", "")
	cfg.RateLimitAdmin = getEnvInt("RATE_LIMIT_ADMIN", 120)
	cfg.RateLimitPublic = getEnvInt("RATE_LIMIT_PUBLIC", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
