package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Raster   RasterConfig   `mapstructure:"raster"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr   string `mapstructure:"http_addr"`
	GRPCAddr   string `mapstructure:"grpc_addr"`
	BodyLimit  int    `mapstructure:"body_limit"`
	EnforcePDF bool   `mapstructure:"enforce_pdf"`
}

// RasterConfig holds PDF rasterization configuration
type RasterConfig struct {
	Pdftoppm string `mapstructure:"pdftoppm"`
	Width    int    `mapstructure:"width"`
	DPI      int    `mapstructure:"dpi"`
	MaxPages int    `mapstructure:"max_pages"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // openai | vertex | ollama
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Temperature       float32       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	VertexProject     string        `mapstructure:"vertex_project"`
	VertexRegion      string        `mapstructure:"vertex_region"`
	OllamaHost        string        `mapstructure:"ollama_host"`
}

// PipelineConfig holds per-document pipeline behavior
type PipelineConfig struct {
	Mode             string `mapstructure:"mode"` // full | fast
	StrictTranscribe bool   `mapstructure:"strict_transcribe"`
	PageConcurrency  int    `mapstructure:"page_concurrency"`
	NormalizePhone   bool   `mapstructure:"normalize_phone"`
}

// BatchConfig holds batch orchestration configuration
type BatchConfig struct {
	ChunkSize       int           `mapstructure:"chunk_size"`
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
}

// LedgerConfig holds the external table configuration
type LedgerConfig struct {
	Backend             string        `mapstructure:"backend"` // sheets | xlsx
	SpreadsheetID       string        `mapstructure:"spreadsheet_id"`
	SheetName           string        `mapstructure:"sheet_name"`
	ServiceAccountEmail string        `mapstructure:"service_account_email"`
	PrivateKey          string        `mapstructure:"private_key"`
	XLSXPath            string        `mapstructure:"xlsx_path"`
	QueueSize           int           `mapstructure:"queue_size"`
	AppendTimeout       time.Duration `mapstructure:"append_timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// envBindings keeps the established variable names working alongside CVINTAKE_* overrides.
var envBindings = map[string][]string{
	"server.http_addr":             {"HTTP_ADDR"},
	"server.grpc_addr":             {"GRPC_ADDR"},
	"raster.pdftoppm":              {"PDFTOPPM"},
	"llm.provider":                 {"LLM_PROVIDER"},
	"llm.model":                    {"OPENAI_MODEL", "LLM_MODEL"},
	"llm.api_key":                  {"OPENAI_API_KEY"},
	"llm.base_url":                 {"OPENAI_BASE_URL"},
	"llm.temperature":              {"OPENAI_TEMPERATURE"},
	"llm.timeout":                  {"OPENAI_TIMEOUT"},
	"llm.vertex_project":           {"PROJECT_ID"},
	"llm.vertex_region":            {"VERTEX_AI_REGION"},
	"llm.ollama_host":              {"OLLAMA_HOST"},
	"ledger.spreadsheet_id":        {"GOOGLE_SPREADSHEET_ID"},
	"ledger.service_account_email": {"GOOGLE_SERVICE_ACCOUNT_EMAIL"},
	"ledger.private_key":           {"GOOGLE_PRIVATE_KEY"},
	"log.level":                    {"LOG_LEVEL"},
	"log.file":                     {"LOG_FILE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":8081")
	v.SetDefault("server.body_limit", 20*1024*1024)
	v.SetDefault("server.enforce_pdf", false)

	v.SetDefault("raster.pdftoppm", "pdftoppm")
	v.SetDefault("raster.width", 2048)
	v.SetDefault("raster.dpi", 100)
	v.SetDefault("raster.max_pages", 0)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 45*time.Second)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.vertex_region", "us-central1")
	v.SetDefault("llm.ollama_host", "http://localhost:11434")

	v.SetDefault("pipeline.mode", "full")
	v.SetDefault("pipeline.strict_transcribe", false)
	v.SetDefault("pipeline.page_concurrency", 4)
	v.SetDefault("pipeline.normalize_phone", true)

	v.SetDefault("batch.chunk_size", 10)
	v.SetDefault("batch.document_timeout", 3*time.Minute)

	v.SetDefault("ledger.backend", "sheets")
	v.SetDefault("ledger.xlsx_path", "./ledger.xlsx")
	v.SetDefault("ledger.queue_size", 256)
	v.SetDefault("ledger.append_timeout", 30*time.Second)
	v.SetDefault("ledger.max_retries", 0)
	v.SetDefault("ledger.retry_backoff", time.Second)

	v.SetDefault("log.level", "info")
}

// LoadConfig loads configuration from defaults, an optional YAML file, and the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, NewAppError(CodeConfig, "read config file", err)
			}
		}
	}

	v.SetEnvPrefix("CVINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key, "CVINTAKE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, NewAppError(CodeConfig, "bind env "+key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "unmarshal config", err)
	}
	// PEM keys pasted into env vars usually carry literal "\n".
	cfg.Ledger.PrivateKey = strings.ReplaceAll(cfg.Ledger.PrivateKey, `\n`, "\n")
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case "vertex":
		if c.LLM.VertexProject == "" {
			return NewAppError(CodeConfig, "PROJECT_ID is required for the vertex provider", ErrInvalidInput)
		}
	case "ollama":
		if c.LLM.OllamaHost == "" {
			return NewAppError(CodeConfig, "OLLAMA_HOST is required for the ollama provider", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown llm provider %q", c.LLM.Provider), ErrInvalidInput)
	}

	switch c.Ledger.Backend {
	case "sheets":
		if c.Ledger.SpreadsheetID == "" {
			return NewAppError(CodeConfig, "GOOGLE_SPREADSHEET_ID is required", ErrInvalidInput)
		}
		if c.Ledger.ServiceAccountEmail == "" || c.Ledger.PrivateKey == "" {
			return NewAppError(CodeConfig, "GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY are required", ErrInvalidInput)
		}
	case "xlsx":
		if c.Ledger.XLSXPath == "" {
			return NewAppError(CodeConfig, "ledger.xlsx_path is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown ledger backend %q", c.Ledger.Backend), ErrInvalidInput)
	}

	if c.Pipeline.Mode != "full" && c.Pipeline.Mode != "fast" {
		return NewAppError(CodeConfig, fmt.Sprintf("unknown pipeline mode %q", c.Pipeline.Mode), ErrInvalidInput)
	}
	if c.Batch.ChunkSize <= 0 {
		return NewAppError(CodeConfig, "batch.chunk_size must be positive", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
