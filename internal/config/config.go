package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM       LLMConfig
	Server    ServerConfig
	History   HistoryConfig
	Resume    ResumeConfig
	Storage   StorageConfig
	MCP       MCPConfig
	Log       LogConfig
	Workspace WorkspaceConfig
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// HistoryConfig points at the SQLite transcript log. An empty path keeps it in memory.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// ResumeConfig bounds resume input.
type ResumeConfig struct {
	MaxChars       int   `mapstructure:"max_chars"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// StorageConfig configures the optional S3-compatible bucket resumes can be read from.
type StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Enabled reports whether a bucket is configured.
func (s StorageConfig) Enabled() bool { return s.Bucket != "" }

// MCPConfig toggles the MCP tool surface.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WorkspaceConfig bounds the live workspace registry.
type WorkspaceConfig struct {
	MaxLive int           `mapstructure:"max_live"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultModel = "gemini-3-flash-preview"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("history.path", "")
	v.SetDefault("resume.max_chars", 10000)
	v.SetDefault("resume.max_upload_bytes", 5<<20)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("mcp.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("workspace.max_live", 1000)
	v.SetDefault("workspace.idle_ttl", "30m")
}

// Load loads .env, then the YAML file named by CONFIG_PATH (or ./config.yaml).
// A missing ./config.yaml is not an error; defaults and environment apply. A
// CONFIG_PATH that cannot be read is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	explicit := os.Getenv("CONFIG_PATH")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Accept the conventional credential variable names as well.
	_ = v.BindEnv("llm.api_key", "API_KEY", "GEMINI_API_KEY", "LLM_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.LLM.Provider = strings.ToLower(config.LLM.Provider)

	return &config, nil
}
