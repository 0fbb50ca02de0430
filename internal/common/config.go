package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Log     LogConfig
	Journal JournalConfig
	Server  ServerConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Extract ExtractConfig
}

// LogConfig holds logger configuration
type LogConfig struct {
	Format string // "json" | "text"
	Level  string
}

// JournalConfig holds the extraction journal database configuration
type JournalConfig struct {
	Driver      string // "sqlite" | "postgres" | "none"
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	InboxDir       string
	OutboxDir      string
	Workers        int
	ProcessTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Pdftoppm    string
	Pdftotext   string
	Lang        string
	DPI         int
	MaxPages    int
	Concurrency int
	TessdataDir string
}

// LLMConfig holds extraction model configuration
type LLMConfig struct {
	Provider    string // "openai" | "ollama" | "none"
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
	RPS         float64
}

// ExtractConfig holds normalization settings
type ExtractConfig struct {
	PatternsFile string
	Strict       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
		Journal: JournalConfig{
			Driver:      strings.ToLower(getEnv("JOURNAL_DRIVER", "sqlite")),
			DSN:         getEnv("JOURNAL_DSN", "file:journal.db?_pragma=busy_timeout(5000)"),
			MaxConns:    getEnvAsInt32("DB_MAX_CONNS", 4),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":9090"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			InboxDir:       getEnv("INBOX_DIR", "./inbox"),
			OutboxDir:      getEnv("OUTBOX_DIR", "./outbox"),
			Workers:        getEnvAsInt("WORKERS", 4),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("OCR_TESSERACT", "tesseract"),
			Pdftoppm:    getEnv("OCR_PDFTOPPM", "pdftoppm"),
			Pdftotext:   getEnv("OCR_PDFTOTEXT", "pdftotext"),
			Lang:        getEnv("OCR_LANG", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			Concurrency: getEnvAsInt("OCR_CONCURRENCY", 4),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "none")),
			Model:       getEnv("LLM_MODEL", ""),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxAttempts: getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			RPS:         getEnvAsFloat64("LLM_RPS", 2),
		},
		Extract: ExtractConfig{
			PatternsFile: getEnv("EXTRACT_PATTERNS_FILE", ""),
			Strict:       getEnvAsBool("SCHEMA_STRICT", true),
		},
	}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
	v := NewValidator().
		Field("JOURNAL_DRIVER", c.Journal.Driver, OneOf("sqlite", "postgres", "none", "")).
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf("openai", "ollama", "none", "")).
		Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text")).
		Field("WORKERS", c.Server.Workers, Positive).
		Field("OCR_DPI", c.OCR.DPI, Positive)
	if c.Journal.Driver == "sqlite" || c.Journal.Driver == "postgres" {
		v.Field("JOURNAL_DSN", c.Journal.DSN, Required)
	}
	if c.LLM.Provider == "openai" {
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	return v.Error()
}
