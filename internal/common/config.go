package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/or-schedule/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Worker   WorkerConfig   `yaml:"worker"`
	Parser   ParserConfig   `yaml:"parser"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// DSN is a postgres URL, "sqlite://path" or "sqlite::memory:". Empty disables persistence.
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// OCRConfig holds text acquisition configuration
type OCRConfig struct {
	TessdataDir      string `yaml:"tessdata_dir"`
	Lang             string `yaml:"lang"`
	DPI              int    `yaml:"dpi"`
	ArtifactCacheDir string `yaml:"artifact_cache_dir"`
	HeicConverter    string `yaml:"heic_converter"`
}

// WorkerConfig holds queue, watcher and output settings
type WorkerConfig struct {
	WatchDir       string        `yaml:"watch_dir"`
	OutputDir      string        `yaml:"output_dir"`
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// ParserConfig holds schedule parser settings
type ParserConfig struct {
	Facilities        []string `yaml:"facilities"`
	LegacyWorklistPop bool     `yaml:"legacy_worklist_pop"`
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
			HTTPAddr: ":8081",
		},
		OCR: OCRConfig{
			Lang:             "eng",
			DPI:              300,
			ArtifactCacheDir: "./tmp",
		},
		Worker: WorkerConfig{
			Workers:        2,
			QueueSize:      64,
			ProcessTimeout: 2 * time.Minute,
		},
		Parser: ParserConfig{
			Facilities: append([]string(nil), constants.KnownFacilities...),
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return applyEnv(defaultConfig())
}

// LoadConfigFile reads a YAML file over the defaults and then applies
// environment variables on top. An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "invalid config file "+path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(c *Config) *Config {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)

	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Lang = getEnv("TESSERACT_LANG", c.OCR.Lang)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.ArtifactCacheDir = getEnv("ARTIFACT_CACHE_DIR", c.OCR.ArtifactCacheDir)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)

	c.Worker.WatchDir = getEnv("WATCH_DIR", c.Worker.WatchDir)
	c.Worker.OutputDir = getEnv("OUTPUT_DIR", c.Worker.OutputDir)
	c.Worker.Workers = getEnvAsInt("WORKERS", c.Worker.Workers)
	c.Worker.QueueSize = getEnvAsInt("QUEUE_SIZE", c.Worker.QueueSize)
	c.Worker.ProcessTimeout = getEnvAsDuration("PROCESS_TIMEOUT", c.Worker.ProcessTimeout)

	c.Parser.LegacyWorklistPop = getEnvAsBool("LEGACY_WORKLIST_POP", c.Parser.LegacyWorklistPop)
	return c
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Worker.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Worker.QueueSize < 1 {
		return NewAppError("CONFIG_ERROR", "QUEUE_SIZE must be at least 1", ErrInvalidInput)
	}
	if c.OCR.DPI < 72 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be at least 72", ErrInvalidInput)
	}
	for _, f := range c.Parser.Facilities {
		if strings.TrimSpace(f) == "" {
			return NewAppError("CONFIG_ERROR", "facility names must not be blank", ErrInvalidInput)
		}
	}
	return nil
}
