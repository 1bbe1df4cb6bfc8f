// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/tasklist-go/internal/storage"
)

// isolate points HOME and the working directory at fresh temp dirs and clears
// TASKLIST_* variables so the developer's own config cannot leak in.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, b := range envBindings() {
		t.Setenv(b.name, "")
	}
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	t.Setenv("PWD", work)
	return home, work
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.StorageBackend != DefaultStorageBackend {
		t.Errorf("StorageBackend: got %q, want %q", cfg.StorageBackend, DefaultStorageBackend)
	}
	if cfg.StorageKey != "to-do-list" {
		t.Errorf("StorageKey: got %q, want to-do-list", cfg.StorageKey)
	}
	if cfg.PersistToggle {
		t.Error("PersistToggle should default to false")
	}
	if !cfg.Mouse {
		t.Error("Mouse should default to true")
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("log defaults: got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadDefaults(t *testing.T) {
	home, work := isolate(t)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantRoot, _ := filepath.EvalSymlinks(work)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	if gotRoot != wantRoot {
		t.Errorf("ProjectRoot: got %q, want %q", gotRoot, wantRoot)
	}
	if filepath.Base(cfg.StoragePath) != "storage.json" || !filepath.IsAbs(cfg.StoragePath) {
		t.Errorf("StoragePath: got %q", cfg.StoragePath)
	}
	if cfg.LogDir != filepath.Join(home, ".tasklist", "logs") {
		t.Errorf("LogDir: got %q", cfg.LogDir)
	}
	if cfg.Encrypt || cfg.EncryptKeyFile != "" {
		t.Errorf("encryption should be off by default: %v %q", cfg.Encrypt, cfg.EncryptKeyFile)
	}
	if cfg.Backend() != storage.BackendFile {
		t.Errorf("Backend: got %q", cfg.Backend())
	}
}

func TestSQLiteDefaultPath(t *testing.T) {
	isolate(t)

	cfg, err := Load(newFlagSet(), []string{"-store", "sqlite"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(cfg.StoragePath) != "storage.db" {
		t.Errorf("StoragePath: got %q, want storage.db", cfg.StoragePath)
	}
	opts := cfg.StorageOptions()
	if opts.Backend != storage.BackendSQLite || opts.Path != cfg.StoragePath {
		t.Errorf("StorageOptions: got %+v", opts)
	}
}

func TestMemoryBackendHasNoPath(t *testing.T) {
	isolate(t)

	cfg, err := Load(newFlagSet(), []string{"-store", "memory"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StoragePath != "" {
		t.Errorf("StoragePath: got %q, want empty", cfg.StoragePath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKLIST_STORE", "sqlite")
	t.Setenv("TASKLIST_KEY", "groceries")
	t.Setenv("TASKLIST_PERSIST_TOGGLE", "yes")
	t.Setenv("TASKLIST_MOUSE", "0")
	t.Setenv("TASKLIST_LOG_LEVEL", "debug")

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorageBackend != "sqlite" {
		t.Errorf("StorageBackend: got %q", cfg.StorageBackend)
	}
	if cfg.StorageKey != "groceries" {
		t.Errorf("StorageKey: got %q", cfg.StorageKey)
	}
	if !cfg.PersistToggle {
		t.Error("PersistToggle should be true")
	}
	if cfg.Mouse {
		t.Error("Mouse should be false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}
}

func TestPriorityOrder(t *testing.T) {
	home, work := isolate(t)

	writeFile(t, filepath.Join(home, ".tasklist", "tasklist.toml"), `
storage_key = "user-key"
log_level = "warn"
log_format = "text"
`)
	writeFile(t, filepath.Join(work, "tasklist.toml"), `
storage_key = "project-key"
log_level = "error"
`)
	t.Setenv("TASKLIST_LOG_LEVEL", "debug")

	cws, err := LoadWithSources(newFlagSet(), []string{"-key", "flag-key"})
	if err != nil {
		t.Fatalf("LoadWithSources failed: %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		field      string
		got        string
		want       string
		wantSource ConfigSource
	}{
		{"storage_key", cfg.StorageKey, "flag-key", SourceFlag},
		{"log_level", cfg.LogLevel, "debug", SourceEnv},
		{"log_format", cfg.LogFormat, "text", SourceUserFile},
		{"storage_backend", cfg.StorageBackend, "file", SourceDefault},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.field, tt.got, tt.want)
		}
		if cws.Sources[tt.field] != tt.wantSource {
			t.Errorf("%s source: got %q, want %q", tt.field, cws.Sources[tt.field], tt.wantSource)
		}
	}

	if len(cws.Files) != 2 {
		t.Fatalf("Files: got %v, want 2 entries", cws.Files)
	}
	if cws.GetConfigFile() != "tasklist.toml" {
		t.Errorf("GetConfigFile: got %q", cws.GetConfigFile())
	}
}

func TestProjectFileSource(t *testing.T) {
	_, work := isolate(t)
	writeFile(t, filepath.Join(work, ".tasklist.toml"), "persist_toggle = true\n")

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources failed: %v", err)
	}
	if !cws.Config.PersistToggle {
		t.Error("PersistToggle should be true from project file")
	}
	if cws.Sources["persist_toggle"] != SourceProjFile {
		t.Errorf("source: got %q", cws.Sources["persist_toggle"])
	}
	if cws.Sources["mouse"] != SourceDefault {
		t.Errorf("mouse source: got %q", cws.Sources["mouse"])
	}
}

func TestXDGUserConfig(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "tasklist", "tasklist.toml"), `storage_key = "xdg"`+"\n")

	got := findUserConfigFile()
	if got == "" {
		t.Skip("no OS-specific config dir on this platform")
	}
	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorageKey != "xdg" {
		t.Errorf("StorageKey: got %q", cfg.StorageKey)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		args    []string
		wantErr string
	}{
		{"bad toml", "storage_key = \n", nil, "project config"},
		{"unknown key", "colour = \"red\"\n", nil, "unknown keys"},
		{"bad backend", "", []string{"-store", "redis"}, "unknown storage backend"},
		{"empty key", "", []string{"-key", "  "}, "storage key"},
		{"bad flag", "", []string{"-nope"}, "parsing flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, work := isolate(t)
			if tt.file != "" {
				writeFile(t, filepath.Join(work, "tasklist.toml"), tt.file)
			}
			fs := newFlagSet()
			fs.SetOutput(&strings.Builder{})
			_, err := Load(fs, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDefaults(t *testing.T) {
	t.Run("encrypt flag picks default key file", func(t *testing.T) {
		isolate(t)
		cfg, err := Load(newFlagSet(), []string{"-encrypt"})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if filepath.Base(cfg.EncryptKeyFile) != "storage.age" || !filepath.IsAbs(cfg.EncryptKeyFile) {
			t.Errorf("EncryptKeyFile: got %q", cfg.EncryptKeyFile)
		}
		opts := cfg.StorageOptions()
		if opts.EncryptKeyFile != cfg.EncryptKeyFile {
			t.Error("StorageOptions should carry the key file")
		}
		if !opts.CreateKey {
			t.Error("default key file should be created on demand")
		}
	})

	t.Run("key file implies encrypt", func(t *testing.T) {
		_, work := isolate(t)
		cfg, err := Load(newFlagSet(), []string{"-encrypt-key", "keys/k.age"})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !cfg.Encrypt {
			t.Error("Encrypt should be true")
		}
		if cfg.StorageOptions().CreateKey {
			t.Error("an explicit key file must never be generated")
		}
		want, _ := filepath.EvalSymlinks(work)
		got, _ := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(cfg.EncryptKeyFile)))
		if got != want {
			t.Errorf("EncryptKeyFile: got %q, want under %q", cfg.EncryptKeyFile, work)
		}
	})
}

func TestRemainingArgs(t *testing.T) {
	isolate(t)
	fs := newFlagSet()
	if _, err := Load(fs, []string{"-key", "k", "add", "buy", "milk"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := strings.Join(fs.Args(), " ")
	if got != "add buy milk" {
		t.Errorf("Args: got %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("TASKLIST_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/logs", filepath.Join(home, "logs")},
		{"$TASKLIST_TEST_DIR/store.json", "/data/store.json"},
		{"relative/path", "relative/path"},
		{"~user/logs", "~user/logs"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBoolFromString(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", " yes ", "on"} {
		if !boolFromString(s) {
			t.Errorf("boolFromString(%q) should be true", s)
		}
	}
	for _, s := range []string{"", "0", "false", "off", "nope"} {
		if boolFromString(s) {
			t.Errorf("boolFromString(%q) should be false", s)
		}
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("example config does not decode: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Errorf("example config has unknown keys: %v", md.Undecoded())
	}
	if cfg.StorageKey != DefaultStorageKey {
		t.Errorf("StorageKey: got %q", cfg.StorageKey)
	}
}
