package config

import (
	"github.com/nibzard/tasklist-go/internal/storage"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultStorageBackend = "file"
	DefaultStorageKey     = "to-do-list"
	DefaultLogDir         = "~/.tasklist/logs"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMouse          = true
	DefaultPersistToggle  = false
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Storage
	StorageBackend string `toml:"storage_backend"`
	StoragePath    string `toml:"storage_path"`
	StorageKey     string `toml:"storage_key"`
	Encrypt        bool   `toml:"encrypt"`
	EncryptKeyFile string `toml:"encrypt_key_file"`

	// Widget behavior
	PersistToggle bool `toml:"persist_toggle"`
	Mouse         bool `toml:"mouse"`

	// Logging
	LogDir    string `toml:"log_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
	// GenerateKey is set when EncryptKeyFile is the default location, the
	// only place a missing key is created.
	GenerateKey bool `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage_backend",
		"storage_path",
		"storage_key",
		"encrypt",
		"encrypt_key_file",
		"persist_toggle",
		"mouse",
		"log_dir",
		"log_level",
		"log_format",
	}
}

// Backend returns the normalized storage backend.
func (c *Config) Backend() storage.Backend {
	b, err := storage.ParseBackend(c.StorageBackend)
	if err != nil {
		return storage.BackendFile
	}
	return b
}

// StorageOptions returns the options used to open the configured store.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:        c.Backend(),
		Path:           c.StoragePath,
		EncryptKeyFile: c.EncryptKeyFile,
		CreateKey:      c.GenerateKey,
	}
}
