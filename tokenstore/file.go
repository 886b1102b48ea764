package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kbukum/authkit/encryption"
)

// FileBackend keeps all keys in a single JSON document readable only by the
// current user. Writes replace the file atomically. With an Encryptor set,
// values are sealed before they reach the disk.
type FileBackend struct {
	path      string
	encryptor encryption.Encryptor
	mu        sync.Mutex
}

// OpenFile prepares a FileBackend at path, creating the parent directory.
// enc may be nil.
func OpenFile(path string, enc encryption.Encryptor) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("file backend: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file backend: create dir: %w", err)
	}
	b := &FileBackend{path: filepath.Clean(path), encryptor: enc}
	// Surface unreadable or corrupt files at open time rather than on first use.
	if _, err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FileBackend) Name() string { return "file" }

// Path returns the file location.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	if !ok {
		return "", false, nil
	}
	if b.encryptor != nil {
		if v, err = b.encryptor.Decrypt(v); err != nil {
			return "", false, fmt.Errorf("file backend: decrypt %q: %w", key, err)
		}
	}
	return v, true, nil
}

func (b *FileBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return err
	}
	if b.encryptor != nil {
		if value, err = b.encryptor.Encrypt(value); err != nil {
			return fmt.Errorf("file backend: encrypt %q: %w", key, err)
		}
	}
	data[key] = value
	return b.store(data)
}

func (b *FileBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return b.store(data)
}

func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file backend: read: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("file backend: decode %s: %w", b.path, err)
	}
	return data, nil
}

func (b *FileBackend) store(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("file backend: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("file backend: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file backend: chmod: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file backend: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file backend: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("file backend: replace: %w", err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
