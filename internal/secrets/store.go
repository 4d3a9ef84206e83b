// Package secrets stores the warehouse password in the OS keyring,
// falling back to an encrypted file when no keyring is available.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"sqldeck/internal/common"
	"sqldeck/internal/config"
	"sqldeck/pkg/errors"
)

const (
	keyringService   = "sqldeck"
	saltSize         = 32
	pbkdf2Iterations = 100000
	keySize          = 32 // AES-256
)

// Store persists warehouse credentials
type Store struct {
	useKeyring bool
	masterKey  []byte
}

// NewStore creates a credential store, probing keyring availability
func NewStore() (*Store, error) {
	s := &Store{useKeyring: keyringAvailable()}

	if !s.useKeyring {
		key, err := masterKey()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to initialize master key")
		}
		s.masterKey = key
	}

	return s, nil
}

// SetPassword stores the password for account/username
func (s *Store) SetPassword(account, username, password string) error {
	name := credentialName(account, username)
	if s.useKeyring {
		if err := keyring.Set(keyringService, name, password); err != nil {
			return errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to store password in keyring")
		}
		return nil
	}
	return s.setEncrypted(name, password)
}

// GetPassword retrieves the password for account/username
func (s *Store) GetPassword(account, username string) (string, error) {
	name := credentialName(account, username)
	if s.useKeyring {
		password, err := keyring.Get(keyringService, name)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to read password from keyring").
				WithSuggestions("Run 'sqldeck setup' to store the warehouse password")
		}
		return password, nil
	}
	return s.getEncrypted(name)
}

// DeletePassword removes the password for account/username
func (s *Store) DeletePassword(account, username string) error {
	name := credentialName(account, username)
	if s.useKeyring {
		return keyring.Delete(keyringService, name)
	}
	return os.Remove(credentialPath(name))
}

func credentialName(account, username string) string {
	return fmt.Sprintf("%s:%s", account, username)
}

func keyringAvailable() bool {
	probe := "sqldeck-probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}

// Encrypted file fallback

func (s *Store) setEncrypted(name, password string) error {
	encrypted, err := s.encrypt(password)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to encrypt password")
	}

	if err := os.MkdirAll(secretsDir(), common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to create secrets directory")
	}

	if err := os.WriteFile(credentialPath(name), []byte(encrypted), common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to write credential file")
	}
	return nil
}

func (s *Store) getEncrypted(name string) (string, error) {
	data, err := os.ReadFile(credentialPath(name)) // #nosec G304 - fixed directory
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to read credential file").
			WithSuggestions("Run 'sqldeck setup' to store the warehouse password")
	}

	password, err := s.decrypt(string(data))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSecretStore, "Failed to decrypt credential file")
	}
	return password, nil
}

func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encrypted := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// masterKey loads or creates the fallback encryption key. The key is
// derived with PBKDF2 from the hostname plus a random salt, and both
// are kept in a single 0600 file.
func masterKey() ([]byte, error) {
	keyPath := filepath.Join(secretsDir(), ".master")

	data, err := os.ReadFile(keyPath) // #nosec G304 - fixed path
	if err == nil {
		if len(data) != saltSize+keySize {
			return nil, fmt.Errorf("invalid master key file size")
		}
		return data[saltSize:], nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	key := pbkdf2.Key([]byte(hostname), salt, pbkdf2Iterations, keySize, sha256.New)

	if err := os.MkdirAll(secretsDir(), common.DirPermissionSecure); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, append(salt, key...), common.FilePermissionSecure); err != nil {
		return nil, err
	}

	return key, nil
}

func secretsDir() string {
	return filepath.Join(config.GetConfigPath(), "secrets")
}

func credentialPath(name string) string {
	return filepath.Join(secretsDir(), base64.URLEncoding.EncodeToString([]byte(name))+".cred")
}
