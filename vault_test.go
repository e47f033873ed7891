package powerauth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// SC5: vault-unlock derive.
func TestDeriveKeyAtIndex(t *testing.T) {
	sess, possessionUnlock := activateSession(t, "1234")

	kVault := make([]byte, 16)
	copy(kVault, []byte("k-vault-16-bytes"))

	transportKey, err := pacrypto.DecryptCBCZeroIV(possessionUnlock, sess.active.transportKeyEnvelope)
	require.NoError(t, err)

	encVaultKey, err := pacrypto.EncryptCBCZeroIV(transportKey, kVault)
	require.NoError(t, err)

	resp := &VaultUnlockResponse{
		EncryptedVaultEncryptionKeyB64: base64.StdEncoding.EncodeToString(encVaultKey),
	}

	derived, err := sess.DeriveKeyAtIndex(resp, SignatureUnlockKeys{Possession: possessionUnlock}, 42)
	require.NoError(t, err)

	want, err := pacrypto.DeriveK(kVault, 42)
	require.NoError(t, err)
	assert.Equal(t, want, derived)
	assert.Len(t, derived, 16)
}

func TestVaultUnlockRejectsWrongPossessionKey(t *testing.T) {
	sess, possessionUnlock := activateSession(t, "1234")

	kVault := make([]byte, 16)
	transportKey, err := pacrypto.DecryptCBCZeroIV(possessionUnlock, sess.active.transportKeyEnvelope)
	require.NoError(t, err)
	encVaultKey, err := pacrypto.EncryptCBCZeroIV(transportKey, kVault)
	require.NoError(t, err)

	resp := &VaultUnlockResponse{
		EncryptedVaultEncryptionKeyB64: base64.StdEncoding.EncodeToString(encVaultKey),
	}

	wrongKey := make([]byte, 16)
	wrongKey[0] = 0xFF
	_, err = sess.DeriveKeyAtIndex(resp, SignatureUnlockKeys{Possession: wrongKey}, 42)
	assert.Error(t, err)
}

func TestAddBiometryFactorViaVault(t *testing.T) {
	sess, possessionUnlock := activateSession(t, "1234")
	assert.False(t, sess.HasBiometryFactor())

	kVault := make([]byte, 16)
	copy(kVault, []byte("k-vault-16-bytes"))
	transportKey, err := pacrypto.DecryptCBCZeroIV(possessionUnlock, sess.active.transportKeyEnvelope)
	require.NoError(t, err)
	encVaultKey, err := pacrypto.EncryptCBCZeroIV(transportKey, kVault)
	require.NoError(t, err)

	resp := &VaultUnlockResponse{
		EncryptedVaultEncryptionKeyB64: base64.StdEncoding.EncodeToString(encVaultKey),
	}

	biometryUnlockKey := make([]byte, 16)
	copy(biometryUnlockKey, []byte("bio-unlock-16-by"))

	err = sess.AddBiometryFactor(resp, possessionUnlock, biometryUnlockKey, nil)
	require.NoError(t, err)
	assert.True(t, sess.HasBiometryFactor())

	auth := &PowerAuthAuthentication{
		Factors:    Biometry,
		UnlockKeys: SignatureUnlockKeys{Biometry: biometryUnlockKey},
	}
	_, err = sess.Sign("POST", "/x", []byte("hi"), auth)
	require.NoError(t, err)
}
