package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
		},
		Relay: RelayConfig{
			Port: 18650,
			Bind: "loopback",
		},
		Store: StoreConfig{
			Path: "shopmate.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
