// Package config loads application configuration from a .env file, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the entrypoint.
const (
	DriverMinio  = "minio"
	DriverS3     = "s3"
	DriverFS     = "fs"
	DriverMemory = "memory"
)

// Config holds all runtime configuration for the service.
//
// Precedence, lowest first: Default(), the YAML file named by CONFIG_FILE
// (or ./config.yaml when present), then environment variables. A .env file in
// the working directory is loaded into the environment before anything else.
type Config struct {
	Port     string `yaml:"port"`
	AppEnv   string `yaml:"appEnv"`
	LogLevel string `yaml:"logLevel"` // debug, info, warn, error

	// PublicURL is the browser-accessible base that object names are appended to,
	// e.g. "https://img.example.com" or "http://localhost:9000/images".
	PublicURL string `yaml:"publicURL"`

	MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
	StrictBase64   bool     `yaml:"strictBase64"`   // structurally invalid base64 is a 400 instead of a 500
	SanitizeErrors bool     `yaml:"sanitizeErrors"` // hide internal error text from clients
	VerifyContent  bool     `yaml:"verifyContent"`  // reject payloads that do not sniff as image/*
	CORSOrigins    []string `yaml:"corsOrigins"`
	MetricsEnabled bool     `yaml:"metricsEnabled"`
	SwaggerEnabled bool     `yaml:"swaggerEnabled"`

	Storage StorageConfig `yaml:"storage"`
	Tracing TracingConfig `yaml:"tracing"`
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	Endpoint     string `yaml:"endpoint"` // host:port for minio, URL for s3-compatible endpoints
	AccessKey    string `yaml:"accessKey"`
	SecretKey    string `yaml:"secretKey"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"useSSL"`
	EnsureBucket bool   `yaml:"ensureBucket"` // minio only: create the bucket with a public-read policy
	Dir          string `yaml:"dir"`          // fs only
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio"`
	ServiceName string  `yaml:"serviceName"`
}

// Default returns a Config suitable for local development against MinIO.
func Default() Config {
	return Config{
		Port:           "8080",
		AppEnv:         "development",
		LogLevel:       "info",
		PublicURL:      "http://localhost:9000/images",
		MaxBodyBytes:   20 << 20,
		CORSOrigins:    []string{"*"},
		MetricsEnabled: true,
		SwaggerEnabled: true,
		Storage: StorageConfig{
			Driver:    DriverMinio,
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "images",
			Region:    "us-east-1",
			Dir:       "./data",
		},
		Tracing: TracingConfig{
			SampleRatio: 1.0,
			ServiceName: "picbed",
		},
	}
}

// Load reads configuration from a .env file (if present), an optional YAML file
// and environment variables, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	cfg := Default()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q not found", path)
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMinio, DriverS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for driver %q", c.Storage.Driver)
		}
	case DriverFS:
		if c.Storage.Dir == "" {
			return errors.New("storage dir is required for driver \"fs\"")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.PublicURL) == "" {
		return errors.New("public URL is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(c *Config) {
	c.Port = getEnv("PORT", c.Port)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.PublicURL = getEnv("PUBLIC_URL", c.PublicURL)
	c.MaxBodyBytes = getEnvInt64("MAX_BODY_BYTES", c.MaxBodyBytes)
	c.StrictBase64 = getEnvBool("STRICT_BASE64", c.StrictBase64)
	c.SanitizeErrors = getEnvBool("SANITIZE_ERRORS", c.SanitizeErrors)
	c.VerifyContent = getEnvBool("VERIFY_CONTENT", c.VerifyContent)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.SwaggerEnabled = getEnvBool("SWAGGER_ENABLED", c.SwaggerEnabled)

	c.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", c.Storage.Driver))
	c.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", c.Storage.Endpoint)
	c.Storage.AccessKey = getEnv("STORAGE_ACCESS_KEY", c.Storage.AccessKey)
	c.Storage.SecretKey = getEnv("STORAGE_SECRET_KEY", c.Storage.SecretKey)
	c.Storage.Bucket = getEnv("STORAGE_BUCKET", c.Storage.Bucket)
	c.Storage.Region = getEnv("STORAGE_REGION", c.Storage.Region)
	c.Storage.UseSSL = getEnvBool("STORAGE_USE_SSL", c.Storage.UseSSL)
	c.Storage.EnsureBucket = getEnvBool("STORAGE_ENSURE_BUCKET", c.Storage.EnsureBucket)
	c.Storage.Dir = getEnv("STORAGE_DIR", c.Storage.Dir)

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("TRACING_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRatio = getEnvRatio("TRACING_SAMPLE_RATIO", c.Tracing.SampleRatio)
	c.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getEnvBool keeps fallback when the value is not a recognized boolean.
func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvRatio clamps the parsed value to [0, 1].
func getEnvRatio(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return min(max(f, 0), 1)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
