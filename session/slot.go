package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrSlotUnavailable wraps backend failures (I/O, Redis) while touching a slot.
var ErrSlotUnavailable = errors.New("token slot unavailable")

// ErrSlotCorrupt is returned when a slot holds data that cannot be read back
// as a token. Callers should treat it as a failed validation and erase.
var ErrSlotCorrupt = errors.New("token slot corrupt")

// TokenSlot is the durable home of the bearer token. ReadToken reports
// absence as ("", nil). EraseToken on an empty slot succeeds.
type TokenSlot interface {
	ReadToken(ctx context.Context) (string, error)
	WriteToken(ctx context.Context, token string) error
	EraseToken(ctx context.Context) error
}

// MemorySlot keeps the token in process memory.
type MemorySlot struct {
	mu    sync.RWMutex
	token string
}

// NewMemorySlot returns an empty [MemorySlot].
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// ReadToken returns the stored token.
func (m *MemorySlot) ReadToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// WriteToken replaces the stored token.
func (m *MemorySlot) WriteToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// EraseToken drops the stored token.
func (m *MemorySlot) EraseToken(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// DefaultTokenPath returns where file slots keep the token. It honors
// GOAUTHCLIENT_TOKEN_FILE, then $XDG_CONFIG_HOME/goauthclient/token.json,
// then ~/.config/goauthclient/token.json.
func DefaultTokenPath() string {
	if envPath := os.Getenv("GOAUTHCLIENT_TOKEN_FILE"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "goauthclient-token.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "goauthclient", "token.json")
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old file or the new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("%w: creating directory %s: %v", ErrSlotUnavailable, directory, err)
	}

	tmp, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrSlotUnavailable, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: chmod temp file: %v", ErrSlotUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: writing temp file: %v", ErrSlotUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: syncing temp file: %v", ErrSlotUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: closing temp file: %v", ErrSlotUnavailable, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: renaming into %s: %v", ErrSlotUnavailable, path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", ErrSlotUnavailable, path, err)
	}
	return nil
}
