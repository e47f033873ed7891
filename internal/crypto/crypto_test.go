package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptCBCRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	plaintext := []byte("device public key or any other 16-key-wrapped secret")
	ciphertext, err := EncryptCBC(key, iv, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := DecryptCBC(key, iv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptCBCRejectsBadPadding(t *testing.T) {
	key := make([]byte, 16)
	ciphertext := make([]byte, 16)
	_, err := DecryptCBCZeroIV(key, ciphertext)
	assert.Error(t, err)
}

func TestDeriveKIsDeterministic(t *testing.T) {
	master := make([]byte, 16)
	_, err := rand.Read(master)
	require.NoError(t, err)

	k1, err := DeriveK(master, 1)
	require.NoError(t, err)
	k2, err := DeriveK(master, 1)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)

	k3, err := DeriveK(master, 2)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestPointCompressionRoundTrip(t *testing.T) {
	priv, err := GenerateKeyPair()
	require.NoError(t, err)

	compressed := CompressPoint(priv.PublicKey.X, priv.PublicKey.Y)
	assert.Len(t, compressed, 33)

	x, y, err := DecompressPoint(compressed)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey.X, x)
	assert.Equal(t, priv.PublicKey.Y, y)
}

func TestSharedSecretIsSymmetric(t *testing.T) {
	alice, err := GenerateKeyPair()
	require.NoError(t, err)
	bob, err := GenerateKeyPair()
	require.NoError(t, err)

	s1 := SharedSecret(alice, bob.PublicKey.X, bob.PublicKey.Y)
	s2 := SharedSecret(bob, alice.PublicKey.X, alice.PublicKey.Y)
	assert.Equal(t, s1, s2)
}

func TestSignVerify(t *testing.T) {
	priv, err := GenerateKeyPair()
	require.NoError(t, err)

	digest := SHA256([]byte("payload to sign"))
	sig, err := Sign(priv, digest)
	require.NoError(t, err)
	assert.True(t, Verify(&priv.PublicKey, digest, sig))

	other, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, Verify(&other.PublicKey, digest, sig))
}

func TestCanonicalizeQuery(t *testing.T) {
	params := map[string]string{
		"b": "hello world",
		"a": "1",
	}
	got := CanonicalizeQuery(params)
	assert.Equal(t, "a=1&b=hello%20world", string(got))
	assert.Equal(t, []byte{}, CanonicalizeQuery(nil))
}

func TestSealOpenAtRest(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	plaintext := []byte("biometry-protected blob")
	sealed, err := SealAtRest(plaintext, key)
	require.NoError(t, err)

	opened, err := OpenAtRest(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = OpenAtRest(sealed, key)
	assert.Error(t, err)
}

func TestIsWeakKey(t *testing.T) {
	assert.True(t, IsWeakKey(make([]byte, 8)))
	assert.True(t, IsWeakKey(make([]byte, 32)))
	assert.True(t, IsWeakKey([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))

	good := make([]byte, 32)
	_, err := rand.Read(good)
	require.NoError(t, err)
	assert.False(t, IsWeakKey(good))
}
