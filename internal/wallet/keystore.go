package wallet

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/99designs/keyring"
)

const keychainService = "w3gate"

// KeyEnv overrides every stored key, for headless runs.
const KeyEnv = "W3GATE_KEY"

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// Keys stores private keys by wallet name.
type Keys interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore keeps private keys in a keyring.
type Keystore struct {
	ring keyring.Keyring
}

// NewKeystore wraps an open keyring. Tests pass keyring.NewArrayKeyring(nil).
func NewKeystore(ring keyring.Keyring) *Keystore {
	return &Keystore{ring: ring}
}

// OpenKeystore opens the OS keychain. fileDir is used by the encrypted file
// backend, which Linux hosts without a secret service fall back to.
func OpenKeystore(fileDir string, password keyring.PromptFunc) (*Keystore, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
		FilePasswordFunc:         password,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keychain: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

func refFor(name string) string { return keychainService + "." + name }

// Store saves hexKey for the wallet name and returns its reference.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := refFor(name)
	if err := k.ring.Set(keyring.Item{Key: ref, Data: []byte(hexKey), Label: "w3gate wallet " + name}); err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a key by reference. KeyEnv takes precedence.
func (k *Keystore) Retrieve(ref string) (string, error) {
	if v := os.Getenv(KeyEnv); v != "" {
		return normaliseHexKey(v), nil
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key. A missing key is not an error.
func (k *Keystore) Delete(ref string) error {
	if err := k.ring.Remove(ref); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}
