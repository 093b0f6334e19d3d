package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

type Config struct {
	ListenAddr string
	DBDriver   string
	DBDSN      string

	PhotoBackend string
	PhotoPath    string
	S3           S3Config

	AllowedOrigin  string
	MaxUploadSize  int64
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFile   string
	LogFormat string

	parseErrs []error
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadDotEnv copies variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "clientes.db"),
		PhotoBackend: getEnv("PHOTO_BACKEND", PhotoBackendLocal),
		PhotoPath:    getEnv("PHOTO_LOCAL_PATH", "uploads"),
		S3: S3Config{
			Bucket:          getEnv("PHOTO_S3_BUCKET", ""),
			Prefix:          getEnv("PHOTO_S3_PREFIX", ""),
			Region:          getEnv("PHOTO_S3_REGION", "us-east-1"),
			Endpoint:        getEnv("PHOTO_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("PHOTO_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("PHOTO_S3_SECRET_ACCESS_KEY", ""),
		},
		AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:4200"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}
	cfg.MaxUploadSize = cfg.getEnvInt64("MAX_UPLOAD_SIZE", 10<<20)
	cfg.RateLimitRPS = cfg.getEnvFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = int(cfg.getEnvInt64("RATE_LIMIT_BURST", 40))
	return cfg
}

// Validate reports malformed numbers and unsupported backend choices.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	switch c.PhotoBackend {
	case PhotoBackendLocal:
		if c.PhotoPath == "" {
			errs = append(errs, errors.New("PHOTO_LOCAL_PATH is required when PHOTO_BACKEND=local"))
		}
	case PhotoBackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("PHOTO_S3_BUCKET is required when PHOTO_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported PHOTO_BACKEND %q", c.PhotoBackend))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat))
	}

	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func (c *Config) getEnvInt64(key string, defaultVal int64) int64 {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("invalid %s %q: %w", key, val, err))
		return defaultVal
	}
	return n
}

func (c *Config) getEnvFloat(key string, defaultVal float64) float64 {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("invalid %s %q: %w", key, val, err))
		return defaultVal
	}
	return f
}
