package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	StorageDisk = "disk"
	StorageS3   = "s3"
)

type Config struct {
	BindAddress string
	BaseURL     string
	DebugMode   bool
	LogLevel    string

	DBDriver string
	DSN      string

	SessionSecret string
	SessionMaxAge int // seconds
	SecureCookies bool

	Storage         string
	UploadDir       string
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string // fmt pattern, e.g. "https://pub.example.com/%s"

	GoogleKey    string
	GoogleSecret string

	RequirePhoto       bool
	PhotoMaxWidth      int
	MaxUploadMB        int
	RateLimitPerMinute int
}

// Default returns the configuration used for local development.
func Default() Config {
	return Config{
		BindAddress:        ":3000",
		BaseURL:            "http://localhost:3000",
		DebugMode:          true,
		LogLevel:           "info",
		DBDriver:           DriverSQLite,
		DSN:                "grams.db",
		SessionMaxAge:      86400 * 30,
		Storage:            StorageDisk,
		UploadDir:          "uploads",
		PhotoMaxWidth:      1200,
		MaxUploadMB:        10,
		RateLimitPerMinute: 20,
	}
}

// Load reads an optional .env file and then the process environment on top of
// the defaults.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	c := Default()
	readEnvString("BIND_ADDRESS", &c.BindAddress)
	readEnvString("BASE_URL", &c.BaseURL)
	readEnvBool("DEBUG_MODE", &c.DebugMode)
	readEnvString("LOG_LEVEL", &c.LogLevel)
	readEnvString("DB_DRIVER", &c.DBDriver)
	readEnvString("DSN", &c.DSN)
	readEnvString("SESSION_SECRET", &c.SessionSecret)
	readEnvInt("SESSION_MAX_AGE", &c.SessionMaxAge)
	readEnvBool("SECURE_COOKIES", &c.SecureCookies)
	readEnvString("STORAGE", &c.Storage)
	readEnvString("UPLOAD_DIR", &c.UploadDir)
	readEnvString("ACCOUNT_ID", &c.AccountID)
	readEnvString("ACCESS_KEY_ID", &c.AccessKeyID)
	readEnvString("ACCESS_KEY_SECRET", &c.AccessKeySecret)
	readEnvString("BUCKET_NAME", &c.BucketName)
	readEnvString("PUBLIC_URL", &c.PublicURL)
	readEnvString("GOOGLE_KEY", &c.GoogleKey)
	readEnvString("GOOGLE_SECRET", &c.GoogleSecret)
	readEnvBool("REQUIRE_PHOTO", &c.RequirePhoto)
	readEnvInt("PHOTO_MAX_WIDTH", &c.PhotoMaxWidth)
	readEnvInt("MAX_UPLOAD_MB", &c.MaxUploadMB)
	readEnvInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)

	c.DBDriver = strings.ToLower(c.DBDriver)
	c.Storage = strings.ToLower(c.Storage)
	if c.SessionSecret == "" && c.DebugMode {
		c.SessionSecret = "grams-development-secret"
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.DSN == "" {
		return errors.New("DSN is required")
	}
	switch c.Storage {
	case StorageDisk:
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required for disk storage")
		}
	case StorageS3:
		if c.BucketName == "" || c.AccessKeyID == "" || c.AccessKeySecret == "" {
			return errors.New("BUCKET_NAME, ACCESS_KEY_ID and ACCESS_KEY_SECRET are required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the multipart body limit for photo uploads.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}
