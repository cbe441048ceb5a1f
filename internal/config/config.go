package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Client   ClientConfig   `mapstructure:"client"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds the on-disk layout for uploads and generated forms
type StorageConfig struct {
	BaseDir           string   `mapstructure:"base_dir"`
	UploadDir         string   `mapstructure:"upload_dir"`
	ArtifactDir       string   `mapstructure:"artifact_dir"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	PromptsPath string        `mapstructure:"prompts_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// AIExtraction enables the language model fallback for field extraction
	AIExtraction bool `mapstructure:"ai_extraction"`
}

// AdvisorConfig bounds the history forwarded to the chat model
type AdvisorConfig struct {
	HistoryMessages int `mapstructure:"history_messages"`
	HistoryChars    int `mapstructure:"history_chars"`
}

// TaxConfig holds computation and form settings
type TaxConfig struct {
	FormTemplatePath string `mapstructure:"form_template_path"`
	MaxPDFPages      int    `mapstructure:"max_pdf_pages"`
}

// ClientConfig holds settings for the command-line client
type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 32<<20)

	// Database defaults
	v.SetDefault("database.path", "data/tax_agent.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Storage defaults
	v.SetDefault("storage.base_dir", "data")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.artifact_dir", "artifacts")
	v.SetDefault("storage.allowed_extensions", []string{".pdf"})
	v.SetDefault("storage.max_file_size", 10<<20)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("openai.ai_extraction", true)

	// Advisor defaults
	v.SetDefault("advisor.history_messages", 3)
	v.SetDefault("advisor.history_chars", 200)

	// Tax defaults
	v.SetDefault("tax.max_pdf_pages", 10)

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:5000")
	v.SetDefault("client.request_timeout", 60*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("client.base_url", "TAX_AGENT_BASE_URL")
	_ = v.BindEnv("logger.level", "TAX_AGENT_LOG_LEVEL")
}

// Validate validates the configuration. The OpenAI key is optional: without
// it the advisor answers with its fallback reply and extraction is regex only.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Storage.UploadDir == "" || c.Storage.ArtifactDir == "" {
		return fmt.Errorf("storage.upload_dir and storage.artifact_dir are required")
	}
	if c.Storage.UploadDir == c.Storage.ArtifactDir {
		return fmt.Errorf("storage.upload_dir and storage.artifact_dir must differ")
	}
	if c.Advisor.HistoryMessages <= 0 || c.Advisor.HistoryChars <= 0 {
		return fmt.Errorf("advisor history limits must be positive")
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client.request_timeout must be positive")
	}
	return nil
}

// HasOpenAI reports whether a language model is configured
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}
