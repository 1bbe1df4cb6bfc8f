package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

const (
	encPrefix = "ENC[age:"
	encSuffix = "]"
)

// ErrUndecryptable marks a stored value that the store's identity cannot
// decrypt, usually because it was written with a different key.
var ErrUndecryptable = errors.New("storage: value cannot be decrypted with this key")

// EncryptedStore wraps another store and encrypts every value with age.
//
// Values written before encryption was enabled are still readable: a value
// without the ENC[age:...] envelope is returned as-is and encrypted on the
// next write.
type EncryptedStore struct {
	inner     Store
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewEncryptedStore wraps inner with the given identity.
func NewEncryptedStore(inner Store, identity *age.X25519Identity) *EncryptedStore {
	return &EncryptedStore{
		inner:     inner,
		identity:  identity,
		recipient: identity.Recipient(),
	}
}

func (e *EncryptedStore) GetItem(key string) (string, bool, error) {
	blob, ok, err := e.inner.GetItem(key)
	if err != nil || !ok {
		return "", ok, err
	}
	if !IsEncrypted(blob) {
		return blob, true, nil
	}
	plain, err := Decrypt(blob, e.identity)
	if err != nil {
		return "", false, fmt.Errorf("decrypt %q: %w: %v", key, ErrUndecryptable, err)
	}
	return plain, true, nil
}

// SetItem encrypts value and stores it. It refuses to replace an existing
// encrypted value that this identity cannot decrypt.
func (e *EncryptedStore) SetItem(key, value string) error {
	current, ok, err := e.inner.GetItem(key)
	if err != nil {
		return err
	}
	if ok && IsEncrypted(current) {
		if _, err := Decrypt(current, e.identity); err != nil {
			return fmt.Errorf("overwrite %q: %w: %v", key, ErrUndecryptable, err)
		}
	}
	blob, err := Encrypt(value, e.recipient)
	if err != nil {
		return fmt.Errorf("encrypt %q: %w", key, err)
	}
	return e.inner.SetItem(key, blob)
}

func (e *EncryptedStore) RemoveItem(key string) error {
	return e.inner.RemoveItem(key)
}

func (e *EncryptedStore) Keys() ([]string, error) {
	return e.inner.Keys()
}

func (e *EncryptedStore) Close() error {
	return e.inner.Close()
}

// GenerateIdentity creates an X25519 key pair and writes it to path with 0o600.
// It does nothing if the file already exists.
func GenerateIdentity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by tasklist\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// LoadIdentity reads the first X25519 identity from path.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("no X25519 identity found in %s", path)
}

// Encrypt encrypts plaintext for recipient and returns an ENC[age:...] blob.
func Encrypt(plaintext string, recipient *age.X25519Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("age encrypt init: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt close: %w", err)
	}
	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt opens an ENC[age:...] blob.
func Decrypt(blob string, identity *age.X25519Identity) (string, error) {
	if !IsEncrypted(blob) {
		return "", fmt.Errorf("not an encrypted blob")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(blob[len(encPrefix) : len(blob)-len(encSuffix)])
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s is an ENC[age:...] blob.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, encPrefix) && strings.HasSuffix(s, encSuffix)
}
