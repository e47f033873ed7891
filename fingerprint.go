package powerauth

import (
	"fmt"
	"math/big"
)

// formatFingerprint reduces a SHA-256 digest to an 8-decimal-digit,
// space-grouped human verification code, per activation step 2.
func formatFingerprint(digest []byte) string {
	v := new(big.Int).Mod(new(big.Int).SetBytes(digest), modulus8Digits)
	return FormatFingerprint(fmt.Sprintf("%08d", v.Uint64()))
}

// FormatFingerprint groups an 8-digit fingerprint string into two
// blocks of 4 for display, e.g. "12345678" → "1234 5678".
func FormatFingerprint(digits string) string {
	if len(digits) != 8 {
		return digits
	}
	return digits[:4] + " " + digits[4:]
}
