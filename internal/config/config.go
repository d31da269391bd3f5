package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	MaxUploadMB        int64

	// Storage
	SQLiteDBPath string
	UploadDir    string
	TmpDir       string

	// Report rendering
	TemplatePath       string
	SofficePath        string
	ConvertTimeout     time.Duration
	ConvertConcurrency int64
	RequestTimeout     time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Drive archive (optional)
	GoogleDriveFolderID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8000"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxUploadMB:        int64(getEnvInt("MAX_UPLOAD_MB", 50)),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/database.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./data/uploads"),
		TmpDir:       getEnv("TMP_DIR", "./data/tmp_reports"),

		TemplatePath:       getEnv("TEMPLATE_PATH", "./report_template.docx"),
		SofficePath:        getEnv("SOFFICE_PATH", "soffice"),
		ConvertTimeout:     getEnvDuration("CONVERT_TIMEOUT", 30*time.Second),
		ConvertConcurrency: int64(getEnvInt("CONVERT_CONCURRENCY", 1)),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "auditreport"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_generated"),

		GoogleDriveFolderID:      getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.MaxUploadMB < 1 || c.MaxUploadMB > 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %dMB: must be between 1 and 1024", c.MaxUploadMB))
	}

	// Validate storage paths, creating directories where needed
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
		errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
	}
	for name, dir := range map[string]string{"upload": c.UploadDir, "tmp": c.TmpDir} {
		if dir == "" {
			errors = append(errors, fmt.Sprintf("%s directory cannot be empty", name))
			continue
		}
		if err := ensureDir(dir); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create %s directory: %v", name, err))
		}
	}

	if c.TemplatePath == "" {
		errors = append(errors, "template path cannot be empty")
	}
	if c.SofficePath == "" {
		errors = append(errors, "soffice path cannot be empty")
	}
	if c.ConvertTimeout < time.Second || c.ConvertTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid convert timeout %v: must be between 1s and 10m", c.ConvertTimeout))
	}
	if c.ConvertConcurrency < 1 || c.ConvertConcurrency > 16 {
		errors = append(errors, fmt.Sprintf("invalid convert concurrency %d: must be between 1 and 16", c.ConvertConcurrency))
	}
	if c.RequestTimeout < c.ConvertTimeout {
		errors = append(errors, fmt.Sprintf("request timeout %v must not be shorter than convert timeout %v", c.RequestTimeout, c.ConvertTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Drive archiving needs credentials
	if c.GoogleDriveFolderID != "" {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided when GOOGLE_DRIVE_FOLDER_ID is set")
		}
		if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether report events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ArchiveEnabled reports whether generated reports are archived to Google Drive.
func (c *Config) ArchiveEnabled() bool {
	return c.GoogleDriveFolderID != ""
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
