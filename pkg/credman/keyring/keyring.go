package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring wraps the OS keyring service for the cookie-vault master key.
type Keyring struct {
	AppName  string
	KeyField string
}

// Seams for tests; the real implementations talk to the OS keyring.
var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "tagwatch",
		KeyField: "vault",
	}
}

// SetKey generates a fresh 32-byte key, stores it hex-encoded in the OS
// keyring and returns the raw bytes.
func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// GetKey reads the stored key back and decodes it to raw bytes.
func (k *Keyring) GetKey() ([]byte, error) {
	stored, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	return key, nil
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}
