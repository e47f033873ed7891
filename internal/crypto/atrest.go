package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealAtRest wraps data in ChaCha20-Poly1305 under key, prefixing a
// fresh nonce. It is a storage-at-rest hardening layer a persistence
// adapter can apply on top of the protocol-framed session blob, not part
// of the wire protocol; persist.FileSystemStore does not call it and
// writes blobs as it receives them.
func SealAtRest(data, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new AEAD cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, data, nil)
	out := make([]byte, len(nonce)+len(sealed))
	copy(out, nonce)
	copy(out[len(nonce):], sealed)
	return out, nil
}

// OpenAtRest reverses SealAtRest.
func OpenAtRest(sealed, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new AEAD cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.New("crypto: sealed data too short")
	}
	nonce := sealed[:aead.NonceSize()]
	ciphertext := sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: at-rest authentication failed: %w", err)
	}
	return plaintext, nil
}

// IsWeakKey flags obviously-degenerate key material (all zero, all one
// byte repeated, or low byte variety) before it is used to seal
// anything at rest.
func IsWeakKey(key []byte) bool {
	if len(key) < 16 {
		return true
	}
	allZero, allSame := true, true
	for _, b := range key {
		if b != 0 {
			allZero = false
		}
		if b != key[0] {
			allSame = false
		}
	}
	if allZero || allSame {
		return true
	}
	unique := make(map[byte]bool, len(key))
	for _, b := range key {
		unique[b] = true
	}
	return len(unique) < 8
}
