// Package storage provides local key-value stores for persisted widget state.
//
// Every backend exposes the same small, synchronous API modelled on a
// browser's local storage: string keys map to string values and each write
// replaces the previous value for its key.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("storage: store is closed")

// Store is a synchronous string key-value store.
type Store interface {
	// GetItem returns the value stored under key. ok is false when the key
	// has never been written or was removed.
	GetItem(key string) (value string, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
	// Keys lists stored keys in ascending order.
	Keys() ([]string, error)
	// Close releases resources held by the store.
	Close() error
}

// Backend names a store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ParseBackend normalizes a backend name.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file", "json":
		return BackendFile, nil
	case "sqlite", "sqlite3", "db":
		return BackendSQLite, nil
	case "memory", "mem":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want file|sqlite|memory)", s)
	}
}

// Options selects and configures a store.
type Options struct {
	Backend Backend
	// Path is the file or database location. Ignored by the memory backend.
	Path string
	// EncryptKeyFile, when set, wraps the store so values are encrypted with
	// the age identity in this file.
	EncryptKeyFile string
	// CreateKey generates EncryptKeyFile when it does not exist. Without it a
	// missing key file is an error.
	CreateKey bool
}

// Open creates the store described by opts.
func Open(opts Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch opts.Backend {
	case BackendFile, "":
		store, err = NewFileStore(opts.Path)
	case BackendSQLite:
		store, err = NewSQLiteStore(opts.Path)
	case BackendMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.EncryptKeyFile == "" {
		return store, nil
	}

	if opts.CreateKey {
		if err := GenerateIdentity(opts.EncryptKeyFile); err != nil {
			store.Close()
			return nil, err
		}
	}
	identity, err := LoadIdentity(opts.EncryptKeyFile)
	if err != nil {
		store.Close()
		return nil, err
	}
	return NewEncryptedStore(store, identity), nil
}
