// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backends
const (
	DocumentBackendFirestore = "firestore"
	DocumentBackendPostgres  = "postgres"

	PrefsBackendFile  = "file"
	PrefsBackendRedis = "redis"

	URLModeFirebase = "firebase"
	URLModePublic   = "public"
	URLModeSigned   = "signed"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	ProjectID                string
	FirestoreProjectID       string
	FirebaseProjectID        string
	CredentialsFile          string
	FirestoreCredentialsFile string

	DocumentBackend  string
	DatabaseURL      string
	PhotosCollection string
	UsersCollection  string

	AssetBucket    string
	AssetURLMode   string
	GCSSignerEmail string

	FirebaseWebAPIKey       string
	FirebaseWebAPIKeySecret string
	IdentityToolkitURL      string

	SendGridAPIKey       string
	SendGridAPIKeySecret string
	SendGridFrom         string
	ResetContinueURL     string

	PrefsBackend  string
	PrefsDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	CatalogBaseURL string
	CatalogRPS     float64

	CaptureCommand   string
	CaptureMaxWidth  int
	CaptureMaxHeight int
	CaptureQuality   int
	CaptureDir       string

	MetricsAddr string
	LogLevel    string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	project := os.Getenv("GCP_PROJECT_ID")
	creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	prefsDir := os.Getenv("PREFS_DIR")
	if prefsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		prefsDir = filepath.Join(home, ".drmoto")
	}

	cfg := &Config{
		ProjectID:                project,
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", project),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", project),
		CredentialsFile:          creds,
		FirestoreCredentialsFile: getenvDefault("FIRESTORE_CREDENTIALS_FILE", creds),

		DocumentBackend:  strings.ToLower(getenvDefault("DOCUMENT_BACKEND", DocumentBackendFirestore)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PhotosCollection: getenvDefault("PHOTOS_COLLECTION", "photos"),
		UsersCollection:  getenvDefault("USERS_COLLECTION", "users"),

		AssetBucket:    os.Getenv("ASSET_BUCKET"),
		AssetURLMode:   strings.ToLower(getenvDefault("ASSET_URL_MODE", URLModeFirebase)),
		GCSSignerEmail: os.Getenv("GCS_SIGNER_EMAIL"),

		FirebaseWebAPIKey:       os.Getenv("FIREBASE_WEB_API_KEY"),
		FirebaseWebAPIKeySecret: os.Getenv("FIREBASE_WEB_API_KEY_SECRET"),
		IdentityToolkitURL:      strings.TrimRight(getenvDefault("IDENTITY_TOOLKIT_URL", "https://identitytoolkit.googleapis.com"), "/"),

		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		SendGridAPIKeySecret: os.Getenv("SENDGRID_API_KEY_SECRET"),
		SendGridFrom:         os.Getenv("SENDGRID_FROM"),
		ResetContinueURL:     os.Getenv("RESET_CONTINUE_URL"),

		PrefsBackend:  strings.ToLower(getenvDefault("PREFS_BACKEND", PrefsBackendFile)),
		PrefsDir:      prefsDir,
		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:   getenvDefault("REDIS_PREFIX", "drmoto"),

		CatalogBaseURL: strings.TrimRight(os.Getenv("CATALOG_BASE_URL"), "/"),

		CaptureCommand: os.Getenv("CAPTURE_COMMAND"),
		CaptureDir:     getenvDefault("CAPTURE_DIR", filepath.Join(prefsDir, "captures")),

		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CatalogRPS, err = getenvFloat("CATALOG_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.CaptureMaxWidth, err = getenvInt("CAPTURE_MAX_WIDTH", 1024); err != nil {
		return nil, err
	}
	if cfg.CaptureMaxHeight, err = getenvInt("CAPTURE_MAX_HEIGHT", 1024); err != nil {
		return nil, err
	}
	if cfg.CaptureQuality, err = getenvInt("CAPTURE_QUALITY", 90); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enums and ranges.
func (c *Config) Validate() error {
	switch c.DocumentBackend {
	case DocumentBackendFirestore:
	case DocumentBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: DOCUMENT_BACKEND %q", ErrInvalidConfig, c.DocumentBackend)
	}

	switch c.PrefsBackend {
	case PrefsBackendFile, PrefsBackendRedis:
	default:
		return fmt.Errorf("%w: PREFS_BACKEND %q", ErrInvalidConfig, c.PrefsBackend)
	}

	switch c.AssetURLMode {
	case URLModeFirebase, URLModePublic:
	case URLModeSigned:
		if strings.TrimSpace(c.GCSSignerEmail) == "" {
			return fmt.Errorf("%w: GCS_SIGNER_EMAIL is required for signed urls", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: ASSET_URL_MODE %q", ErrInvalidConfig, c.AssetURLMode)
	}

	if c.CatalogRPS <= 0 {
		return fmt.Errorf("%w: CATALOG_RPS must be positive", ErrInvalidConfig)
	}
	if c.CaptureMaxWidth <= 0 || c.CaptureMaxHeight <= 0 {
		return fmt.Errorf("%w: capture bounds must be positive", ErrInvalidConfig)
	}
	if c.CaptureQuality < 1 || c.CaptureQuality > 100 {
		return fmt.Errorf("%w: CAPTURE_QUALITY must be within 1..100", ErrInvalidConfig)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("%w: REDIS_DB must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
	}
	return f, nil
}
