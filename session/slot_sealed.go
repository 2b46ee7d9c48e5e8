package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"filippo.io/age"
)

// SealedFileSlot stores the token encrypted to an age X25519 identity. The
// identity lives in a separate 0600 key file and is generated on the first
// write when missing.
type SealedFileSlot struct {
	path    string
	keyPath string

	mu       sync.Mutex
	identity *age.X25519Identity
}

// NewSealedFileSlot returns a [SealedFileSlot]. An empty path uses
// [DefaultTokenPath]; an empty keyPath uses path + ".key".
func NewSealedFileSlot(path, keyPath string) *SealedFileSlot {
	if path == "" {
		path = DefaultTokenPath()
	}
	if keyPath == "" {
		keyPath = path + ".key"
	}
	return &SealedFileSlot{path: path, keyPath: keyPath}
}

// Path returns the token file location.
func (s *SealedFileSlot) Path() string {
	return s.path
}

// KeyPath returns the identity file location.
func (s *SealedFileSlot) KeyPath() string {
	return s.keyPath
}

// ReadToken decrypts the stored token. A missing token file is absence; a
// token file that cannot be opened with the key is ErrSlotCorrupt.
func (s *SealedFileSlot) ReadToken(context.Context) (string, error) {
	file, err := readTokenFile(s.path)
	if err != nil || file == nil {
		return "", err
	}
	if file.SealedAccessToken == "" {
		if file.AccessToken != "" {
			return "", fmt.Errorf("%w: %s holds an unsealed token", ErrSlotCorrupt, s.path)
		}
		return "", nil
	}

	s.mu.Lock()
	identity, err := s.loadIdentity(false)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", fmt.Errorf("%w: key file %s is missing", ErrSlotCorrupt, s.keyPath)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.SealedAccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: decoding sealed token: %v", ErrSlotCorrupt, err)
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("%w: decrypting: %v", ErrSlotCorrupt, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: reading decrypted token: %v", ErrSlotCorrupt, err)
	}
	return string(plaintext), nil
}

// WriteToken seals token and atomically replaces the token file.
func (s *SealedFileSlot) WriteToken(_ context.Context, token string) error {
	s.mu.Lock()
	identity, err := s.loadIdentity(true)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, token); err != nil {
		return fmt.Errorf("writing token to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}

	return writeTokenFile(s.path, tokenFile{
		SealedAccessToken: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// EraseToken removes the token file. The key file is kept so later writes
// reuse the same identity.
func (s *SealedFileSlot) EraseToken(context.Context) error {
	return removeIfExists(s.path)
}

// loadIdentity returns the cached identity, reading or (when create is set)
// generating the key file. Returns (nil, nil) when absent and !create.
// Callers hold s.mu.
func (s *SealedFileSlot) loadIdentity(create bool) (*age.X25519Identity, error) {
	if s.identity != nil {
		return s.identity, nil
	}

	data, err := os.ReadFile(s.keyPath)
	switch {
	case err == nil:
		identity, parseErr := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if parseErr != nil {
			return nil, fmt.Errorf("%w: parsing key file %s: %v", ErrSlotCorrupt, s.keyPath, parseErr)
		}
		s.identity = identity
		return identity, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: reading key file %s: %v", ErrSlotUnavailable, s.keyPath, err)
	case !create:
		return nil, nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	if err := writeFileAtomic(s.keyPath, []byte(identity.String()+"\n"), 0o600); err != nil {
		return nil, err
	}
	s.identity = identity
	return identity, nil
}
