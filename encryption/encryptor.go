package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor seals and opens string values.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm names an AEAD construction.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

var (
	// ErrEmptyKey is returned when New is called without a passphrase.
	ErrEmptyKey = errors.New("encryption: key must not be empty")
	// ErrMalformed is returned for input too short to hold a nonce.
	ErrMalformed = errors.New("encryption: malformed ciphertext")
)

var ciphers = map[Algorithm]func(key []byte) (cipher.AEAD, error){
	AlgorithmAESGCM: func(key []byte) (cipher.AEAD, error) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	},
	AlgorithmChaCha20: chacha20poly1305.New,
}

type Option func(*AEAD)

// WithAlgorithm picks the cipher. Unknown names keep AES-256-GCM.
func WithAlgorithm(alg Algorithm) Option {
	return func(a *AEAD) {
		if _, ok := ciphers[alg]; ok {
			a.algorithm = alg
		}
	}
}

// AEAD seals values as base64(nonce || ciphertext). The algorithm name is
// bound as associated data, so a value sealed under one cipher never opens
// under the other even with the same passphrase.
type AEAD struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// New derives a 256-bit key from the passphrase with SHA-256.
func New(key string, opts ...Option) (*AEAD, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	a := &AEAD{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(a)
	}
	sum := sha256.Sum256([]byte(key))
	aead, err := ciphers[a.algorithm](sum[:])
	if err != nil {
		return nil, fmt.Errorf("encryption: init %s: %w", a.algorithm, err)
	}
	a.aead = aead
	return a, nil
}

func (a *AEAD) Algorithm() Algorithm { return a.algorithm }

func (a *AEAD) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize(), a.aead.NonceSize()+len(plaintext)+a.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encryption: nonce: %w", err)
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), []byte(a.algorithm))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (a *AEAD) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("encryption: decode: %w", err)
	}
	n := a.aead.NonceSize()
	if len(data) < n+a.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := a.aead.Open(nil, data[:n], data[n:], []byte(a.algorithm))
	if err != nil {
		return "", fmt.Errorf("encryption: open: %w", err)
	}
	return string(plain), nil
}

var _ Encryptor = (*AEAD)(nil)
