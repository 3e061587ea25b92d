// Package config handles loading and validation of the shopmate
// configuration file.
package config

// Config is the root configuration structure.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Relay    RelayConfig    `yaml:"relay"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig describes the upstream completion provider.
type ProviderConfig struct {
	// BaseURL is the provider root, e.g. "https://api.openai.com".
	BaseURL string `yaml:"base_url"`
	// APIKey may reference an environment variable as ${VAR_NAME}.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RelayConfig configures the edge relay HTTP server.
type RelayConfig struct {
	Port int `yaml:"port"`
	// Bind is one of "loopback", "lan", "auto", or "custom".
	Bind           string   `yaml:"bind"`
	CustomBindHost string   `yaml:"custom_bind_host,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// StoreConfig configures sqlite persistence.
type StoreConfig struct {
	// Path is the sqlite database file; ":memory:" for ephemeral.
	Path string `yaml:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}
