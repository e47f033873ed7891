package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"
)

// p256 is used throughout for both ECDH key agreement and ECDSA
// signatures — the protocol pins NIST P-256 for both.
func p256() elliptic.Curve { return elliptic.P256() }

// GenerateKeyPair produces a fresh device or activation-ephemeral P-256
// keypair.
func GenerateKeyPair() (*ecdsa.PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(p256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate P-256 keypair: %w", err)
	}
	return priv, nil
}

// CompressPoint encodes a P-256 public key in SEC1 compressed form: a
// single 0x02/0x03 prefix byte followed by the 32-byte X coordinate.
func CompressPoint(x, y *big.Int) []byte {
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	x.FillBytes(out[1:])
	return out
}

// DecompressPoint reverses CompressPoint, recovering Y from the curve
// equation.
func DecompressPoint(data []byte) (x, y *big.Int, err error) {
	if len(data) != 33 || (data[0] != 0x02 && data[0] != 0x03) {
		return nil, nil, fmt.Errorf("crypto: malformed compressed point")
	}
	curve := p256().Params()
	x = new(big.Int).SetBytes(data[1:])

	// y^2 = x^3 - 3x + b (mod p)
	ySq := new(big.Int).Exp(x, big.NewInt(3), curve.P)
	threeX := new(big.Int).Mul(x, big.NewInt(3))
	threeX.Mod(threeX, curve.P)
	ySq.Sub(ySq, threeX)
	ySq.Add(ySq, curve.B)
	ySq.Mod(ySq, curve.P)

	y = new(big.Int).ModSqrt(ySq, curve.P)
	if y == nil {
		return nil, nil, fmt.Errorf("crypto: point is not on curve")
	}
	if y.Bit(0) != uint(data[0]&1) {
		y.Sub(curve.P, y)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, nil, fmt.Errorf("crypto: decompressed point is not on curve")
	}
	return x, y, nil
}

// SharedSecret performs raw ECDH scalar multiplication and returns the
// resulting point's X coordinate, left-padded to 32 bytes. Callers that
// need the reduced 16-byte master secret take the leftmost 16 bytes of
// this result, per the wire protocol.
func SharedSecret(priv *ecdsa.PrivateKey, peerX, peerY *big.Int) []byte {
	x, _ := p256().ScalarMult(peerX, peerY, priv.D.Bytes())
	out := make([]byte, 32)
	x.FillBytes(out)
	return out
}
