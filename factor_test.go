package powerauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorString(t *testing.T) {
	assert.Equal(t, "possession", Possession.String())
	assert.Equal(t, "possession_knowledge", (Possession | Knowledge).String())
	assert.Equal(t, "possession_knowledge", (Possession | Knowledge | PrepareVaultUnlock).String())
}

func TestNewAuthenticationRejectsEmptyMask(t *testing.T) {
	_, err := NewAuthentication(0, SignatureUnlockKeys{})
	assert.Error(t, err)
}

func TestNewAuthenticationSetsVaultUnlockFromFlag(t *testing.T) {
	auth, err := NewAuthentication(Possession|PrepareVaultUnlock, SignatureUnlockKeys{Possession: []byte("k")})
	require.NoError(t, err)
	assert.True(t, auth.VaultUnlock)
	assert.True(t, auth.Factors.Has(Possession))
}

func TestFingerprintFormat(t *testing.T) {
	assert.Equal(t, "1234 5678", FormatFingerprint("12345678"))
}
