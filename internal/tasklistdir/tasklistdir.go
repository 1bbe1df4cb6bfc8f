// Package tasklistdir provides constants and helpers for the .tasklist state directory.
package tasklistdir

import "path/filepath"

const (
	// Dir is the name of the per-project state directory.
	Dir = ".tasklist"

	// DefaultFileStore is the JSON store file name (inside .tasklist).
	DefaultFileStore = "storage.json"

	// DefaultSQLiteStore is the SQLite store file name (inside .tasklist).
	DefaultSQLiteStore = "storage.db"

	// DefaultKeyFile is the age identity file name (inside .tasklist).
	DefaultKeyFile = "storage.age"

	// DefaultConfigFile is the config file name.
	DefaultConfigFile = "tasklist.toml"
)

// FileStorePath returns the JSON store path within a work directory.
func FileStorePath(workDir string) string {
	return joinPath(workDir, DefaultFileStore)
}

// SQLiteStorePath returns the SQLite store path within a work directory.
func SQLiteStorePath(workDir string) string {
	return joinPath(workDir, DefaultSQLiteStore)
}

// KeyFilePath returns the age identity path within a work directory.
func KeyFilePath(workDir string) string {
	return joinPath(workDir, DefaultKeyFile)
}

// DirPath returns the .tasklist directory within a work directory.
func DirPath(workDir string) string {
	if workDir == "." || workDir == "" {
		return Dir
	}
	return filepath.Join(workDir, Dir)
}

func joinPath(workDir, file string) string {
	return filepath.Join(DirPath(workDir), file)
}
