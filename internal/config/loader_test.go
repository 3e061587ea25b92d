package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopmate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 18650, cfg.Relay.Port)
	assert.Equal(t, "loopback", cfg.Relay.Bind)
	assert.Equal(t, "https://api.openai.com", cfg.Provider.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
provider:
  base_url: https://llm.internal
  api_key: sk-test
  model: my-model
relay:
  port: 9000
  bind: lan
  allowed_origins: ["https://shop.example.com"]
store:
  path: /tmp/test.db
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://llm.internal", cfg.Provider.BaseURL)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, "my-model", cfg.Provider.Model)
	assert.Equal(t, 9000, cfg.Relay.Port)
	assert.Equal(t, "lan", cfg.Relay.Bind)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.Relay.AllowedOrigins)
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFillsPartialConfig(t *testing.T) {
	path := writeConfig(t, "relay:\n  port: 7777\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Relay.Port)
	assert.Equal(t, "loopback", cfg.Relay.Bind)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "relay: [not a map")

	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "relay:\n  port: 7777\n")
	t.Setenv("SHOPMATE_RELAY_PORT", "8888")
	t.Setenv("SHOPMATE_LOG_LEVEL", "DEBUG")
	t.Setenv("SHOPMATE_PROVIDER_MODEL", "override-model")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Relay.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "override-model", cfg.Provider.Model)
}

func TestLoadExpandsAPIKeyEnvRef(t *testing.T) {
	path := writeConfig(t, "provider:\n  api_key: ${SHOPMATE_TEST_KEY}\n")
	t.Setenv("SHOPMATE_TEST_KEY", "sk-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Provider.APIKey)
}

func TestLoadUnsetEnvRefLeftAlone(t *testing.T) {
	path := writeConfig(t, "provider:\n  api_key: ${SHOPMATE_DEFINITELY_UNSET}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${SHOPMATE_DEFINITELY_UNSET}", cfg.Provider.APIKey)
}
