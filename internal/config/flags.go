package config

import (
	"flag"
)

// flagFields maps global flag names to config field names.
var flagFields = map[string]string{
	"store":          "storage_backend",
	"store-path":     "storage_path",
	"key":            "storage_key",
	"encrypt":        "encrypt",
	"encrypt-key":    "encrypt_key_file",
	"persist-toggle": "persist_toggle",
	"mouse":          "mouse",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
}

// parseFlags defines the global flags on fs and parses args.
// If sources is non-nil, explicitly set flags are recorded as SourceFlag.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.StorageBackend, "store", cfg.StorageBackend, "Storage backend (file|sqlite|memory)")
	fs.StringVar(&cfg.StoragePath, "store-path", cfg.StoragePath, "Storage file or database path")
	fs.StringVar(&cfg.StorageKey, "key", cfg.StorageKey, "Storage key holding the task list")
	fs.BoolVar(&cfg.Encrypt, "encrypt", cfg.Encrypt, "Encrypt stored values with age")
	fs.StringVar(&cfg.EncryptKeyFile, "encrypt-key", cfg.EncryptKeyFile, "age identity file (implies -encrypt)")
	fs.BoolVar(&cfg.PersistToggle, "persist-toggle", cfg.PersistToggle, "Persist completion toggles")
	fs.BoolVar(&cfg.Mouse, "mouse", cfg.Mouse, "Enable mouse clicks in the terminal UI")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json|logfmt|text)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
