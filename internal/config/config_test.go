package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
llm:
  provider: OpenAI
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
server:
  host: 127.0.0.1
  port: "9090"
history:
  path: /tmp/history.db
resume:
  max_chars: 2000
storage:
  bucket: resumes
  endpoint: https://r2.example.com
mcp:
  enabled: true
workspace:
  max_live: 50
  idle_ttl: 5m
`

func clearCredentialEnv(t *testing.T) {
	for _, k := range []string{"API_KEY", "GEMINI_API_KEY", "LLM_API_KEY"} {
		t.Setenv(k, "")
	}
}

// TestLoad_File verifies that Load unmarshals every section of the YAML file.
func TestLoad_File(t *testing.T) {
	clearCredentialEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Equal(t, "https://api.example.com", cfg.LLM.BaseURL)
	require.Equal(t, "dummy", cfg.LLM.APIKey)
	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "/tmp/history.db", cfg.History.Path)
	require.Equal(t, 2000, cfg.Resume.MaxChars)
	require.Equal(t, int64(5<<20), cfg.Resume.MaxUploadBytes)
	require.True(t, cfg.Storage.Enabled())
	require.Equal(t, "auto", cfg.Storage.Region)
	require.True(t, cfg.MCP.Enabled)
	require.Equal(t, 50, cfg.Workspace.MaxLive)
	require.Equal(t, 5*time.Minute, cfg.Workspace.IdleTTL)
}

// withoutConfigFile runs Load from an empty directory with CONFIG_PATH unset.
func withoutConfigFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
}

// TestLoad_Defaults verifies that a missing ./config.yaml falls back to defaults.
func TestLoad_Defaults(t *testing.T) {
	clearCredentialEnv(t)
	withoutConfigFile(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderGemini, cfg.LLM.Provider)
	require.Equal(t, DefaultModel, cfg.LLM.Model)
	require.Empty(t, cfg.LLM.APIKey)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10000, cfg.Resume.MaxChars)
	require.False(t, cfg.Storage.Enabled())
	require.False(t, cfg.MCP.Enabled)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 1000, cfg.Workspace.MaxLive)
	require.Equal(t, 30*time.Minute, cfg.Workspace.IdleTTL)
}

// TestLoad_MissingExplicitPath verifies a CONFIG_PATH naming no file is reported.
func TestLoad_MissingExplicitPath(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	require.ErrorContains(t, err, "read config")
}

// TestLoad_CredentialFromEnv verifies the API key can come from API_KEY.
func TestLoad_CredentialFromEnv(t *testing.T) {
	clearCredentialEnv(t)
	withoutConfigFile(t)
	t.Setenv("API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.LLM.APIKey)
}

// TestLoad_Malformed verifies a broken file is reported.
func TestLoad_Malformed(t *testing.T) {
	clearCredentialEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
}
