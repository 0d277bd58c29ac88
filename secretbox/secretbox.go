// Package secretbox provides the symmetric primitives the session core
// builds on: authenticated encryption for credentials at rest and a keyed
// hash for signing derived material. All keys are derived from a single
// configured master key, so rotating the master key rotates everything.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMasterKeyTooShort is returned when the configured master key does
	// not carry enough entropy to derive subkeys from.
	ErrMasterKeyTooShort = errors.New("master key must be at least 32 bytes")
	// ErrCiphertextInvalid is returned when a ciphertext is truncated,
	// tampered with, or was produced under a different key.
	ErrCiphertextInvalid = errors.New("invalid ciphertext")
)

const keySize = 32

// Codec encrypts, decrypts, and authenticates small payloads under keys
// derived from a master key. A Codec is immutable and safe for concurrent
// use.
type Codec struct {
	encKey []byte
	macKey []byte
}

// New derives the encryption and MAC subkeys from masterKey and returns a
// ready Codec. Distinct HKDF labels keep the two subkeys independent.
func New(masterKey []byte) (*Codec, error) {
	encKey, err := DeriveKey(masterKey, "secretbox/encrypt", keySize)
	if err != nil {
		return nil, err
	}
	macKey, err := DeriveKey(masterKey, "secretbox/mac", keySize)
	if err != nil {
		return nil, err
	}
	return &Codec{encKey: encKey, macKey: macKey}, nil
}

// DeriveKey expands masterKey into an n-byte subkey bound to label via
// HKDF-SHA256. The same (masterKey, label, n) triple always yields the same
// key.
func DeriveKey(masterKey []byte, label string, n int) ([]byte, error) {
	if len(masterKey) < keySize {
		return nil, ErrMasterKeyTooShort
	}
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(label)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM under the derived encryption
// key. The random nonce is prepended to the returned ciphertext.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := c.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by [Codec.Encrypt]. Any tampering,
// truncation, or key mismatch yields [ErrCiphertextInvalid].
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	aead, err := c.aead()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrCiphertextInvalid
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrCiphertextInvalid
	}
	return plaintext, nil
}

// Sum computes the keyed hash of data under the derived MAC key.
func (c *Codec) Sum(data []byte) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifySum reports whether sum is the keyed hash of data. Comparison is
// constant-time.
func (c *Codec) VerifySum(data, sum []byte) bool {
	return hmac.Equal(c.Sum(data), sum)
}

func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
