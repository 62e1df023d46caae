package cache

import (
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// keyringService is the service name tenantdesk registers its secrets under.
	keyringService = "tenantdesk"

	keyFileName    = "secret.key"
	secretsDirName = "secrets"
)

// SecretStore stores small named secrets for a profile. The OS keyring is the
// primary backend; when it is unavailable (headless machines, containers
// without a secret service) secrets are sealed with XChaCha20-Poly1305 into
// files under the profile directory instead.
type SecretStore struct {
	dir        string
	useKeyring bool
}

// NewSecretStore creates a secret store rooted at the given profile directory.
// Setting useKeyring to false skips the OS keyring entirely and always uses
// the sealed file backend.
func NewSecretStore(profileDir string, useKeyring bool) (*SecretStore, error) {
	if profileDir == "" {
		return nil, ErrProfileDirEmpty
	}

	return &SecretStore{
		dir:        profileDir,
		useKeyring: useKeyring,
	}, nil
}

// Set stores a secret under the given name, replacing any previous value.
func (s *SecretStore) Set(name, value string) error {
	if err := checkSecretName(name); err != nil {
		return err
	}

	if s.useKeyring {
		err := keyring.Set(keyringService, name, value)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("secret", name).Msg("keyring unavailable, sealing secret to file")
	}

	return s.sealToFile(name, value)
}

// Get retrieves a secret by name. It returns ErrSecretNotFound when the
// secret is absent from both the keyring and the file store.
func (s *SecretStore) Get(name string) (string, error) {
	if err := checkSecretName(name); err != nil {
		return "", err
	}

	if s.useKeyring {
		value, err := keyring.Get(keyringService, name)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Warn().Err(err).Str("secret", name).Msg("keyring unavailable, trying sealed file")
		}
	}

	return s.openFromFile(name)
}

// Delete removes a secret from both backends. Deleting an absent secret is
// not an error.
func (s *SecretStore) Delete(name string) error {
	if err := checkSecretName(name); err != nil {
		return err
	}

	if s.useKeyring {
		if err := keyring.Delete(keyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			log.Warn().Err(err).Str("secret", name).Msg("keyring delete failed")
		}
	}

	if err := os.Remove(s.secretPath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (s *SecretStore) secretPath(name string) string {
	return filepath.Join(s.dir, secretsDirName, name)
}

func (s *SecretStore) sealToFile(name, value string) error {
	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err = rand.Read(nonce); err != nil {
		return err
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), nil)

	if err = os.MkdirAll(filepath.Join(s.dir, secretsDirName), 0o700); err != nil {
		return err
	}

	return os.WriteFile(s.secretPath(name), sealed, 0o600)
}

func (s *SecretStore) openFromFile(name string) (string, error) {
	raw, err := os.ReadFile(s.secretPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrSecretNotFound
		}
		return "", err
	}

	key, err := s.loadOrCreateKey()
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}

	if len(raw) < chacha20poly1305.NonceSizeX {
		log.Warn().Str("secret", name).Msg("sealed secret is truncated, treating as absent")
		return "", ErrSecretNotFound
	}

	nonce, box := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]

	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		log.Warn().Str("secret", name).Msg("sealed secret failed to decrypt, treating as absent")
		return "", ErrSecretNotFound
	}

	return string(plain), nil
}

// loadOrCreateKey reads the profile's sealing key, generating a fresh one on
// first use. A key file with the wrong size is replaced; secrets sealed under
// it were unreadable already.
func (s *SecretStore) loadOrCreateKey() ([]byte, error) {
	path := filepath.Join(s.dir, keyFileName)

	key, err := os.ReadFile(path)
	if err == nil && len(key) == chacha20poly1305.KeySize {
		return key, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err = rand.Read(key); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, err
	}
	if err = os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}

	return key, nil
}

func checkSecretName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrSecretNameInvalid
	}

	return nil
}
