// Package crypto implements the fixed cryptographic primitives the
// PowerAuth wire protocol pins: AES-128-CBC/PKCS7, HMAC-SHA256, ECDH and
// ECDSA on P-256, and PBKDF2-SHA256. None of these choices are
// configurable — the server on the other end of the wire expects exactly
// these algorithms with exactly these parameters.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

var zeroIV = make([]byte, aes.BlockSize)

// EncryptCBC AES-128-CBC/PKCS7-encrypts plaintext under key using iv. key
// must be 16 bytes.
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new AES cipher: %w", err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// DecryptCBC reverses EncryptCBC, validating and stripping the PKCS7
// padding. Returns an error on malformed padding or a ciphertext whose
// length is not a multiple of the AES block size.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new AES cipher: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("crypto: ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

// EncryptCBCZeroIV is EncryptCBC with the all-zero IV the protocol uses
// for factor-key envelopes and vault-key transport, where every message
// already carries its own randomness elsewhere.
func EncryptCBCZeroIV(key, plaintext []byte) ([]byte, error) {
	return EncryptCBC(key, zeroIV, plaintext)
}

// DecryptCBCZeroIV is the DecryptCBC counterpart of EncryptCBCZeroIV.
func DecryptCBCZeroIV(key, ciphertext []byte) ([]byte, error) {
	return DecryptCBC(key, zeroIV, ciphertext)
}

// DeriveK implements derive_k(master, index): a one-block key tree that
// encrypts the big-endian 16-byte encoding of index under master with a
// zero IV. It is how every signature factor key, the transport key, the
// vault key, and any custom-index derived key are produced from a shared
// secret.
func DeriveK(master []byte, index uint64) ([]byte, error) {
	block := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint64(block[8:], index)

	cph, err := aes.NewCipher(master)
	if err != nil {
		return nil, fmt.Errorf("crypto: new AES cipher: %w", err)
	}
	out := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(cph, zeroIV).CryptBlocks(out, block)
	return out, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("crypto: empty buffer, cannot unpad")
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > n {
		return nil, fmt.Errorf("crypto: invalid PKCS7 padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("crypto: invalid PKCS7 padding")
		}
	}
	return data[:n-padLen], nil
}
