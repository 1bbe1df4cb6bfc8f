package config

import (
	"os"
)

// envBinding maps an environment variable onto a config field.
type envBinding struct {
	name  string
	field string
	apply func(cfg *Config, value string)
}

func envBindings() []envBinding {
	return []envBinding{
		{"TASKLIST_STORE", "storage_backend", func(c *Config, v string) { c.StorageBackend = v }},
		{"TASKLIST_STORE_PATH", "storage_path", func(c *Config, v string) { c.StoragePath = v }},
		{"TASKLIST_KEY", "storage_key", func(c *Config, v string) { c.StorageKey = v }},
		{"TASKLIST_ENCRYPT", "encrypt", func(c *Config, v string) { c.Encrypt = boolFromString(v) }},
		{"TASKLIST_ENCRYPT_KEY_FILE", "encrypt_key_file", func(c *Config, v string) { c.EncryptKeyFile = v }},
		{"TASKLIST_PERSIST_TOGGLE", "persist_toggle", func(c *Config, v string) { c.PersistToggle = boolFromString(v) }},
		{"TASKLIST_MOUSE", "mouse", func(c *Config, v string) { c.Mouse = boolFromString(v) }},
		{"TASKLIST_LOG_DIR", "log_dir", func(c *Config, v string) { c.LogDir = v }},
		{"TASKLIST_LOG_LEVEL", "log_level", func(c *Config, v string) { c.LogLevel = v }},
		{"TASKLIST_LOG_FORMAT", "log_format", func(c *Config, v string) { c.LogFormat = v }},
	}
}

// loadFromEnv overrides config from TASKLIST_* environment variables.
// Empty variables are ignored.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	for _, b := range envBindings() {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		b.apply(cfg, v)
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
}
