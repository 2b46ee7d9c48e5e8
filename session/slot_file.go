package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type tokenFile struct {
	AccessToken       string `json:"access_token,omitempty"`
	SealedAccessToken string `json:"sealed_access_token,omitempty"`
}

func readTokenFile(path string) (*tokenFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSlotUnavailable, path, err)
	}

	var file tokenFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrSlotCorrupt, path, err)
	}
	return &file, nil
}

func writeTokenFile(path string, file tokenFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling token file: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data, 0o600)
}

// FileSlot stores the token in plaintext JSON ({"access_token": "..."}) at a
// fixed path. The directory is created 0700 and the file written 0600.
type FileSlot struct {
	path string
}

// NewFileSlot returns a [FileSlot] at path, or at [DefaultTokenPath] when
// path is empty.
func NewFileSlot(path string) *FileSlot {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &FileSlot{path: path}
}

// Path returns the file location.
func (f *FileSlot) Path() string {
	return f.path
}

// ReadToken returns the stored token. A missing file is absence.
func (f *FileSlot) ReadToken(context.Context) (string, error) {
	file, err := readTokenFile(f.path)
	if err != nil || file == nil {
		return "", err
	}
	if file.AccessToken == "" && file.SealedAccessToken != "" {
		return "", fmt.Errorf("%w: %s holds a sealed token", ErrSlotCorrupt, f.path)
	}
	return file.AccessToken, nil
}

// WriteToken atomically replaces the file.
func (f *FileSlot) WriteToken(_ context.Context, token string) error {
	return writeTokenFile(f.path, tokenFile{AccessToken: token})
}

// EraseToken removes the file.
func (f *FileSlot) EraseToken(context.Context) error {
	return removeIfExists(f.path)
}
