package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags.

# Storage backend: file, sqlite, or memory
storage_backend = "file"

# Store location (relative to the working directory).
# Defaults to .tasklist/storage.json (file) or .tasklist/storage.db (sqlite).
# storage_path = ".tasklist/storage.json"

# Key holding the serialized task list
storage_key = "to-do-list"

# Encrypt stored values with age. The identity file is created on first use.
encrypt = false
# encrypt_key_file = ".tasklist/storage.age"

# Persist completion toggles. Off by default: only add and delete are saved.
persist_toggle = false

# Mouse clicks in the terminal UI (row toggles, [X] deletes, [Add] adds)
mouse = true

# Logging (supports ~ and $VAR expansion)
log_dir = "~/.tasklist/logs"
log_level = "info"   # debug, info, warn, error
log_format = "json"  # json, logfmt, text
`
}
