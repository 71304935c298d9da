// Package keyring stores the cookie-vault master key in the operating
// system's keyring service, with a file-based fallback for headless
// machines where no keyring daemon runs.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	keyFileName = "vault.key"
	keyFileMode = 0600
)

// FileKeyStore is the fallback key store. Keys land in a 0600 file as a
// hex string inside the config directory.
type FileKeyStore struct {
	configDir string
}

// Seams for tests.
var (
	fileRandRead    = rand.Read
	fileReadFile    = os.ReadFile
	fileRemove      = os.Remove
	fileRename      = os.Rename
	fileMkdirAll    = os.MkdirAll
	fileTempFile    = os.CreateTemp
	fileTempFileDir = ""
)

func NewFileKeyStore(configDir string) *FileKeyStore {
	return &FileKeyStore{
		configDir: configDir,
	}
}

func (f *FileKeyStore) keyPath() string {
	return filepath.Join(f.configDir, keyFileName)
}

// SetKey generates a 32-byte key and writes it hex-encoded to the key
// file. The write goes through a temp file plus rename so an interrupted
// process never leaves a truncated key behind.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	if err := fileMkdirAll(f.configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	key := make([]byte, 32)
	if _, err := fileRandRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	dir := f.configDir
	if fileTempFileDir != "" {
		dir = fileTempFileDir
	}
	tmpFile, err := fileTempFile(dir, ".vault.key.tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.WriteString(hex.EncodeToString(key)); err != nil {
		tmpFile.Close()
		fileRemove(tmpPath)
		return nil, fmt.Errorf("write key: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		fileRemove(tmpPath)
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, keyFileMode); err != nil {
		fileRemove(tmpPath)
		return nil, fmt.Errorf("set permissions: %w", err)
	}

	if err := fileRename(tmpPath, f.keyPath()); err != nil {
		fileRemove(tmpPath)
		return nil, fmt.Errorf("rename key file: %w", err)
	}

	return key, nil
}

// GetKey reads and decodes the stored key.
func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := fileReadFile(f.keyPath())
	if err != nil {
		return nil, err
	}

	key, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32, got %d", len(key))
	}

	return key, nil
}

// DeleteKey removes the key file.
func (f *FileKeyStore) DeleteKey() error {
	return fileRemove(f.keyPath())
}
