package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	detection "github.com/anime-shed/stego-inspector-go/pkg/config"
)

// Config holds service, batch and reporting settings
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Detection DetectionConfig `yaml:"detection"`
	Output    OutputConfig    `yaml:"output"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ImageFetchTimeout  time.Duration `yaml:"image_fetch_timeout"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
}

type AnalysisConfig struct {
	NumWorkers          int      `yaml:"num_workers"`
	BatchSize           int      `yaml:"batch_size"`
	MaxImageSize        int      `yaml:"max_image_size"` // longest side in pixels
	ParallelExtractors  bool     `yaml:"parallel_extractors"`
	MaxExtractorWorkers int      `yaml:"max_extractor_workers"`
	SupportedFormats    []string `yaml:"supported_formats"`
}

type DetectionConfig struct {
	Threshold  float64            `yaml:"threshold"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	SaveReports bool   `yaml:"save_reports"`
}

type StorageConfig struct {
	AzureAccountName string `yaml:"azure_account_name"`
	AzureAccountKey  string `yaml:"azure_account_key"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ImageFetchTimeout:  15 * time.Second,
			AnalysisTimeout:    20 * time.Second,
			MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		},
		Analysis: AnalysisConfig{
			NumWorkers:       4,
			BatchSize:        10,
			MaxImageSize:     4096,
			SupportedFormats: []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp"},
		},
		Detection: DetectionConfig{
			Threshold:  detection.DefaultDetectionThreshold,
			Thresholds: detection.Default().Thresholds(),
		},
		Output: OutputConfig{
			Dir: "analysis_results",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads an optional YAML file over the defaults, then applies
// environment overrides and validates the result. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv returns the defaults with environment overrides applied
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnvOrDefault("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvOrDefault("PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.ImageFetchTimeout = parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", cfg.Server.ImageFetchTimeout)
	cfg.Server.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", cfg.Server.AnalysisTimeout)
	cfg.Server.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.Server.MaxRequestBodySize)

	cfg.Analysis.NumWorkers = int(parseIntOrDefault("NUM_WORKERS", int64(cfg.Analysis.NumWorkers)))
	cfg.Analysis.BatchSize = int(parseIntOrDefault("BATCH_SIZE", int64(cfg.Analysis.BatchSize)))
	cfg.Analysis.MaxImageSize = int(parseIntOrDefault("MAX_IMAGE_SIZE", int64(cfg.Analysis.MaxImageSize)))
	cfg.Analysis.ParallelExtractors = parseBoolOrDefault("PARALLEL_EXTRACTORS", cfg.Analysis.ParallelExtractors)

	cfg.Detection.Threshold = parseFloatOrDefault("DETECTION_THRESHOLD", cfg.Detection.Threshold)

	cfg.Output.Dir = getEnvOrDefault("OUTPUT_DIR", cfg.Output.Dir)
	cfg.Output.SaveReports = parseBoolOrDefault("SAVE_REPORTS", cfg.Output.SaveReports)

	cfg.Storage.AzureAccountName = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.Storage.AzureAccountName)
	cfg.Storage.AzureAccountKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.Storage.AzureAccountKey)

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
}

// Validate checks ranges and the detection thresholds
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Server.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Server.Port)
	}
	if c.Server.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.Server.MaxRequestBodySize)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.ImageFetchTimeout <= 0 || c.Server.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.Server.RequestTimeout, c.Server.ImageFetchTimeout, c.Server.AnalysisTimeout)
	}
	if c.Analysis.NumWorkers <= 0 {
		return fmt.Errorf("num_workers must be > 0 (got %d)", c.Analysis.NumWorkers)
	}
	if c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.Analysis.BatchSize)
	}
	if c.Analysis.MaxImageSize <= 0 {
		return fmt.Errorf("max_image_size must be > 0 (got %d)", c.Analysis.MaxImageSize)
	}
	if len(c.Analysis.SupportedFormats) == 0 {
		return fmt.Errorf("supported_formats must not be empty")
	}
	if err := c.DetectionConfig().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}

// ServerAddress returns host:port for the HTTP listener
func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Server.Host)
	port := strings.TrimSpace(c.Server.Port)
	return net.JoinHostPort(host, port)
}

// DetectionConfig builds the immutable threshold value used per analysis
func (c *Config) DetectionConfig() detection.DetectionConfig {
	return detection.Default().
		WithThreshold(c.Detection.Threshold).
		WithThresholds(c.Detection.Thresholds)
}

// IsSupportedFormat reports whether a file extension is accepted, ignoring case
func (c *Config) IsSupportedFormat(ext string) bool {
	ext = strings.ToLower(ext)
	for _, f := range c.Analysis.SupportedFormats {
		if strings.ToLower(f) == ext {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
