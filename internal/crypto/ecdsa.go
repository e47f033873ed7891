package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
)

// Sign produces an ECDSA-P256-SHA256 signature over digest (the caller
// hashes with SHA256 first), ASN.1 DER encoded — the form the wire
// protocol carries in its signature fields.
func Sign(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest)
	if err != nil {
		return nil, fmt.Errorf("crypto: ECDSA sign: %w", err)
	}
	return sig, nil
}

// Verify checks an ASN.1 DER ECDSA-P256-SHA256 signature.
func Verify(pub *ecdsa.PublicKey, digest, sig []byte) bool {
	return ecdsa.VerifyASN1(pub, digest, sig)
}
