package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
	"southwinds.dev/powerauth/internal/misc"
)

// DeriveKnowledgeKey normalizes a user-entered password into the
// 16-byte knowledge unlock key: PBKDF2-HMAC-SHA256, salted with
// activation_id_short, 10000 iterations, per the wire protocol.
func DeriveKnowledgeKey(password []byte, activationIDShort []byte) []byte {
	return pbkdf2.Key(password, activationIDShort, misc.PBKDF2Iterations, misc.KeySize, sha256.New)
}

// DeriveOTPKey normalizes the activation OTP the same way, used to
// encrypt the device public key in activation step 1.
func DeriveOTPKey(otp []byte, salt []byte) []byte {
	return pbkdf2.Key(otp, salt, misc.PBKDF2Iterations, misc.KeySize, sha256.New)
}
