package powerauth

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// activationCodePattern is the grammar from the external interfaces:
// four dash-separated groups of 5 RFC4648 base32 characters (no
// padding).
var activationCodePattern = regexp.MustCompile(`^[A-Z2-7]{5}-[A-Z2-7]{5}-[A-Z2-7]{5}-[A-Z2-7]{5}$`)

// ActivationCode is a parsed, checksum-validated activation code.
type ActivationCode struct {
	Raw               string
	ActivationIDShort string
	ActivationOTP     string
	// Signature is an optional detached signature appended to a QR
	// payload alongside the code; ParseActivationCode does not itself
	// produce one, it is populated by ParseActivationCodeWithSignature.
	Signature []byte
}

// ParseActivationCode validates code's grammar and checksum and splits
// it into its activation-id-short and activation-otp components.
func ParseActivationCode(code string) (*ActivationCode, error) {
	if !activationCodePattern.MatchString(code) {
		return nil, newError("ParseActivationCode", InvalidActivationCode,
			fmt.Errorf("code does not match the expected grammar"))
	}

	stripped := strings.ReplaceAll(code, "-", "")
	prefix, want := stripped[:19], stripped[19]
	if got := pacrypto.ActivationChecksum(prefix); got != want {
		return nil, newError("ParseActivationCode", InvalidActivationCode,
			fmt.Errorf("checksum mismatch"))
	}

	return &ActivationCode{
		Raw:               code,
		ActivationIDShort: stripped[:10],
		ActivationOTP:     stripped[10:20],
	}, nil
}

// ParseActivationCodeWithSignature parses code exactly as
// ParseActivationCode does and additionally decodes a base64-encoded
// detached signature carried alongside it (as in a QR payload that
// combines both).
func ParseActivationCodeWithSignature(code, signatureB64 string) (*ActivationCode, error) {
	ac, err := ParseActivationCode(code)
	if err != nil {
		return nil, err
	}
	if signatureB64 == "" {
		return ac, nil
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, newError("ParseActivationCodeWithSignature", InvalidActivationCode,
			fmt.Errorf("decode signature: %w", err))
	}
	ac.Signature = sig
	return ac, nil
}
