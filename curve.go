package powerauth

import (
	"crypto/elliptic"
	"math/big"
)

// pacurve is the single curve this protocol ever uses: NIST P-256.
func pacurve() elliptic.Curve {
	return elliptic.P256()
}

func bigFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
