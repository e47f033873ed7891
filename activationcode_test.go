package powerauth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivationCode(t *testing.T) {
	code, err := ParseActivationCode("AAAAA-AAAAA-AAAAA-AAAAE")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAA", code.ActivationIDShort)
	assert.Equal(t, "AAAAAAAAAA", code.ActivationOTP)
}

func TestParseActivationCodeRejectsBadGrammar(t *testing.T) {
	_, err := ParseActivationCode("not-a-valid-code")
	require.Error(t, err)
	assert.True(t, Is(err, InvalidActivationCode))
}

func TestParseActivationCodeRejectsBadChecksum(t *testing.T) {
	_, err := ParseActivationCode("AAAAA-AAAAA-AAAAA-AAAAA")
	require.Error(t, err)
	assert.True(t, Is(err, InvalidActivationCode))
}

func TestParseActivationCodeWithSignature(t *testing.T) {
	sig := []byte{1, 2, 3, 4}
	code, err := ParseActivationCodeWithSignature("AAAAA-AAAAA-AAAAA-AAAAE", base64.StdEncoding.EncodeToString(sig))
	require.NoError(t, err)
	assert.Equal(t, sig, code.Signature)
}
