// Package crypto seals stored records with XChaCha20-Poly1305.
package crypto

import (
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// NonceSize is the size of the XChaCha20-Poly1305 nonce (24 bytes).
	NonceSize = chacha20poly1305.NonceSizeX
	// KeySize is the size of the derived key (32 bytes).
	KeySize = chacha20poly1305.KeySize

	version byte = 1
	salt         = "git-cob seal v1"
)

var (
	// ErrEmptyPassphrase is returned when no passphrase is given.
	ErrEmptyPassphrase = errors.New("empty encryption passphrase")
	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or key")
	// ErrCiphertextTooShort is returned when the ciphertext is too short.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	// ErrUnknownVersion is returned for sealed data of an unknown format.
	ErrUnknownVersion = errors.New("unknown sealed format")
)

// Sealer encrypts and authenticates records. Sealing is deterministic:
// the nonce is a keyed hash of the plaintext, so equal records produce
// equal blobs and content addressing keeps working.
type Sealer struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// NewSealer derives the sealing keys from passphrase. context separates
// keys of different stores sharing a passphrase, e.g. the namespace.
func NewSealer(passphrase, context string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	kdf := hkdf.New(sha256.New, []byte(passphrase), []byte(salt), []byte(context))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	nonceKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, nonceKey); err != nil {
		return nil, fmt.Errorf("derive nonce key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &Sealer{aead: aead, nonceKey: nonceKey}, nil
}

// Seal encrypts plaintext.
// Returns: version (1 byte) + nonce (24 bytes) + ciphertext + auth tag
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	h, err := blake3.NewKeyed(s.nonceKey)
	if err != nil {
		return nil, fmt.Errorf("nonce hash: %w", err)
	}
	_, _ = h.Write(plaintext)
	nonce := h.Sum(nil)[:NonceSize]

	out := make([]byte, 0, 1+NonceSize+len(plaintext)+s.aead.Overhead())
	out = append(out, version)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plaintext, []byte{version}), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < 1+NonceSize+s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	if sealed[0] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, sealed[0])
	}
	nonce := sealed[1 : 1+NonceSize]
	plaintext, err := s.aead.Open(nil, nonce, sealed[1+NonceSize:], sealed[:1])
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
