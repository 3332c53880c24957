package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	Upload    UploadConfig
	Extractor ExtractorConfig
	Evaluator EvaluatorConfig
	LLM       LLMConfig
	S3        S3Config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig holds multipart upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB << 20
}

// ExtractorConfig selects and tunes the PDF text extractor.
type ExtractorConfig struct {
	Engine        string `mapstructure:"engine"`
	PdftotextPath string `mapstructure:"pdftotext_path"`
}

// EvaluatorConfig holds rule evaluation settings.
type EvaluatorConfig struct {
	Concurrency      int           `mapstructure:"concurrency"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxDocumentChars int           `mapstructure:"max_document_chars"`
}

// LLMProviderConfig holds settings for a single completion provider.
type LLMProviderConfig struct {
	Provider          string  `mapstructure:"provider"`
	APIKey            string  `mapstructure:"api_key"`
	DefaultModel      string  `mapstructure:"default_model"`
	Endpoint          string  `mapstructure:"endpoint"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	MaxRetries        int     `mapstructure:"max_retries"`
	TimeoutSecs       int     `mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LLMConfig holds completion provider settings with multi-provider support.
type LLMConfig struct {
	// Legacy flat fields (single provider)
	Provider          string  `mapstructure:"provider"`
	APIKey            string  `mapstructure:"api_key"`
	DefaultModel      string  `mapstructure:"default_model"`
	Endpoint          string  `mapstructure:"endpoint"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	MaxRetries        int     `mapstructure:"max_retries"`
	TimeoutSecs       int     `mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// Provider chain
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
	Tertiary  LLMProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, falling back to the flat fields.
func (l *LLMConfig) PrimaryConfig() *LLMProviderConfig {
	if l.Primary.Provider != "" {
		return &l.Primary
	}
	return &LLMProviderConfig{
		Provider:          l.Provider,
		APIKey:            l.APIKey,
		DefaultModel:      l.DefaultModel,
		Endpoint:          l.Endpoint,
		Temperature:       l.Temperature,
		MaxTokens:         l.MaxTokens,
		MaxRetries:        l.MaxRetries,
		TimeoutSecs:       l.TimeoutSecs,
		RequestsPerSecond: l.RequestsPerSecond,
		Burst:             l.Burst,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *LLMProviderConfig {
	if l.Tertiary.Provider != "" {
		return &l.Tertiary
	}
	return nil
}

// ProviderChain returns the configured providers in fallback order.
func (l *LLMConfig) ProviderChain() []*LLMProviderConfig {
	chain := []*LLMProviderConfig{l.PrimaryConfig()}
	if s := l.SecondaryConfig(); s != nil {
		chain = append(chain, s)
	}
	if t := l.TertiaryConfig(); t != nil {
		chain = append(chain, t)
	}
	return chain
}

// S3Config holds settings for the optional S3-compatible document source.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// Load reads configuration from an optional .env file and environment
// variables with the NIYAMR_ prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("NIYAMR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// CORS defaults (local UI dev servers)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")

	v.SetDefault("upload.max_file_size_mb", 20)

	v.SetDefault("extractor.engine", "native")
	v.SetDefault("extractor.pdftotext_path", "pdftotext")

	v.SetDefault("evaluator.concurrency", 4)
	v.SetDefault("evaluator.request_timeout", "3m")
	v.SetDefault("evaluator.max_document_chars", 0)

	// LLM defaults (legacy flat)
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.default_model", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.burst", 1)

	// LLM provider chain defaults
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("llm."+tier+".provider", "")
		v.SetDefault("llm."+tier+".api_key", "")
		v.SetDefault("llm."+tier+".default_model", "")
		v.SetDefault("llm."+tier+".endpoint", "")
		v.SetDefault("llm."+tier+".temperature", 0.2)
		v.SetDefault("llm."+tier+".max_tokens", 1024)
		v.SetDefault("llm."+tier+".max_retries", 2)
		v.SetDefault("llm."+tier+".timeout_secs", 60)
		v.SetDefault("llm."+tier+".requests_per_second", 0)
		v.SetDefault("llm."+tier+".burst", 1)
	}

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 20)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "NIYAMR_SERVER_PORT",
		"server.read_timeout":          "NIYAMR_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "NIYAMR_SERVER_WRITE_TIMEOUT",
		"server.environment":           "NIYAMR_SERVER_ENVIRONMENT",
		"log.level":                    "NIYAMR_LOG_LEVEL",
		"log.format":                   "NIYAMR_LOG_FORMAT",
		"cors.allowed_origins":         "NIYAMR_CORS_ALLOWED_ORIGINS",
		"upload.max_file_size_mb":      "NIYAMR_UPLOAD_MAX_FILE_SIZE_MB",
		"extractor.engine":             "NIYAMR_EXTRACTOR_ENGINE",
		"extractor.pdftotext_path":     "NIYAMR_EXTRACTOR_PDFTOTEXT_PATH",
		"evaluator.concurrency":        "NIYAMR_EVALUATOR_CONCURRENCY",
		"evaluator.request_timeout":    "NIYAMR_EVALUATOR_REQUEST_TIMEOUT",
		"evaluator.max_document_chars": "NIYAMR_EVALUATOR_MAX_DOCUMENT_CHARS",
		"llm.provider":                 "NIYAMR_LLM_PROVIDER",
		"llm.api_key":                  "NIYAMR_LLM_API_KEY",
		"llm.default_model":            "NIYAMR_LLM_DEFAULT_MODEL",
		"llm.endpoint":                 "NIYAMR_LLM_ENDPOINT",
		"llm.temperature":              "NIYAMR_LLM_TEMPERATURE",
		"llm.max_tokens":               "NIYAMR_LLM_MAX_TOKENS",
		"llm.max_retries":              "NIYAMR_LLM_MAX_RETRIES",
		"llm.timeout_secs":             "NIYAMR_LLM_TIMEOUT_SECS",
		"llm.requests_per_second":      "NIYAMR_LLM_REQUESTS_PER_SECOND",
		"llm.burst":                    "NIYAMR_LLM_BURST",
		"s3.enabled":                   "NIYAMR_S3_ENABLED",
		"s3.region":                    "NIYAMR_S3_REGION",
		"s3.bucket":                    "NIYAMR_S3_BUCKET",
		"s3.endpoint":                  "NIYAMR_S3_ENDPOINT",
		"s3.access_key":                "NIYAMR_S3_ACCESS_KEY",
		"s3.secret_key":                "NIYAMR_S3_SECRET_KEY",
		"s3.max_file_size_mb":          "NIYAMR_S3_MAX_FILE_SIZE_MB",
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, field := range []string{"provider", "api_key", "default_model", "endpoint", "temperature",
			"max_tokens", "max_retries", "timeout_secs", "requests_per_second", "burst"} {
			key := "llm." + tier + "." + field
			envBindings[key] = "NIYAMR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if NIYAMR_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("NIYAMR_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitOrigins(v.GetString("cors.allowed_origins")),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}
	cfg.Extractor = ExtractorConfig{
		Engine:        v.GetString("extractor.engine"),
		PdftotextPath: v.GetString("extractor.pdftotext_path"),
	}
	cfg.Evaluator = EvaluatorConfig{
		Concurrency:      v.GetInt("evaluator.concurrency"),
		RequestTimeout:   v.GetDuration("evaluator.request_timeout"),
		MaxDocumentChars: v.GetInt("evaluator.max_document_chars"),
	}

	cfg.LLM = LLMConfig{
		Provider:          v.GetString("llm.provider"),
		APIKey:            v.GetString("llm.api_key"),
		DefaultModel:      v.GetString("llm.default_model"),
		Endpoint:          v.GetString("llm.endpoint"),
		Temperature:       v.GetFloat64("llm.temperature"),
		MaxTokens:         v.GetInt("llm.max_tokens"),
		MaxRetries:        v.GetInt("llm.max_retries"),
		TimeoutSecs:       v.GetInt("llm.timeout_secs"),
		RequestsPerSecond: v.GetFloat64("llm.requests_per_second"),
		Burst:             v.GetInt("llm.burst"),
		Primary:           loadProvider(v, "primary"),
		Secondary:         loadProvider(v, "secondary"),
		Tertiary:          loadProvider(v, "tertiary"),
	}
	// The original deployment only knew GROQ_API_KEY.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}

	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Evaluator.Concurrency < 1 {
		return fmt.Errorf("evaluator.concurrency must be at least 1, got %d", c.Evaluator.Concurrency)
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive, got %d", c.Upload.MaxFileSizeMB)
	}
	switch c.Extractor.Engine {
	case "native", "pdftotext":
	default:
		return fmt.Errorf("unknown extractor.engine: %q", c.Extractor.Engine)
	}
	if c.LLM.PrimaryConfig().Provider == "" {
		return fmt.Errorf("llm.provider must be set")
	}
	return nil
}

func loadProvider(v *viper.Viper, tier string) LLMProviderConfig {
	prefix := "llm." + tier + "."
	return LLMProviderConfig{
		Provider:          v.GetString(prefix + "provider"),
		APIKey:            v.GetString(prefix + "api_key"),
		DefaultModel:      v.GetString(prefix + "default_model"),
		Endpoint:          v.GetString(prefix + "endpoint"),
		Temperature:       v.GetFloat64(prefix + "temperature"),
		MaxTokens:         v.GetInt(prefix + "max_tokens"),
		MaxRetries:        v.GetInt(prefix + "max_retries"),
		TimeoutSecs:       v.GetInt(prefix + "timeout_secs"),
		RequestsPerSecond: v.GetFloat64(prefix + "requests_per_second"),
		Burst:             v.GetInt(prefix + "burst"),
	}
}

// splitOrigins parses a comma-separated origin list.
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
