package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACTrunc16 computes HMAC-SHA256(key, data) and truncates it to the
// leading 16 bytes, the form used both for the signature MAC and the
// application-signature check in activation step 1.
func HMACTrunc16(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)[:16]
}

// SHA256Trunc16 hashes data with SHA-256 and truncates to 16 bytes. Used
// to fold device-related entropy into the possession unlock key
// (signature_unlock_key_from_data in the wire protocol's terms).
func SHA256Trunc16(data []byte) []byte {
	sum := sha256.Sum256(data)
	out := make([]byte, 16)
	copy(out, sum[:16])
	return out
}

// SHA256 is the plain, untruncated digest, used for the device public
// key fingerprint and for hashing payloads before an ECDSA signature.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
