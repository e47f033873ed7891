package powerauth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"southwinds.dev/powerauth/audit"
	pacrypto "southwinds.dev/powerauth/internal/crypto"
	"southwinds.dev/powerauth/persist"
)

func mustB64Decode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestSetup(t *testing.T) (Setup, *ecdsa.PrivateKey) {
	t.Helper()
	masterPriv, err := pacrypto.GenerateKeyPair()
	require.NoError(t, err)

	setup := Setup{
		InstanceID:            "test-instance",
		ApplicationKey:        []byte("app-key-0123456"),
		ApplicationSecret:     []byte("app-secret-0123456789"),
		MasterServerPublicKey: &masterPriv.PublicKey,
	}
	return setup, masterPriv
}

func newTestSession(t *testing.T) (*Session, *ecdsa.PrivateKey) {
	t.Helper()
	setup, masterPriv := newTestSetup(t)
	store, err := persist.NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	sess, err := NewSession(setup, store, audit.NewNoOpLogger())
	require.NoError(t, err)
	return sess, masterPriv
}

// respondStep1 builds the ActivationCreateResponse a server would send
// back for req, using masterPriv both as the signing key (matching
// Setup.MasterServerPublicKey) and as the long-term ECDH key point
// "server_pub" — a valid simplification since both are P-256 keypairs
// and the protocol never requires them to differ.
func respondStep1(t *testing.T, req *ActivationCreateRequest, masterPriv *ecdsa.PrivateKey) *ActivationCreateResponse {
	t.Helper()

	devicePubRaw, err := base64.StdEncoding.DecodeString(req.EphemeralPublicKeyB64)
	require.NoError(t, err)
	devicePubX, devicePubY, err := pacrypto.DecompressPoint(devicePubRaw)
	require.NoError(t, err)

	serverEphemeral, err := pacrypto.GenerateKeyPair()
	require.NoError(t, err)
	serverEphemeralRaw := pacrypto.CompressPoint(serverEphemeral.PublicKey.X, serverEphemeral.PublicKey.Y)

	shared := pacrypto.SharedSecret(serverEphemeral, devicePubX, devicePubY)

	serverNonce := make([]byte, 16)
	_, err = rand.Read(serverNonce)
	require.NoError(t, err)

	serverPubRaw := pacrypto.CompressPoint(masterPriv.PublicKey.X, masterPriv.PublicKey.Y)
	encServerPub, err := pacrypto.EncryptCBC(shared[:16], serverNonce, serverPubRaw)
	require.NoError(t, err)

	digest := pacrypto.SHA256(append(append([]byte{}, serverEphemeralRaw...), encServerPub...))
	sig, err := pacrypto.Sign(masterPriv, digest)
	require.NoError(t, err)

	return &ActivationCreateResponse{
		ActivationID:                         "A-1234567890",
		ActivationNonceB64:                   base64.StdEncoding.EncodeToString(serverNonce),
		EphemeralPublicKeyB64:                base64.StdEncoding.EncodeToString(serverEphemeralRaw),
		EncryptedServerPublicKeyB64:          base64.StdEncoding.EncodeToString(encServerPub),
		EncryptedServerPublicKeySignatureB64: base64.StdEncoding.EncodeToString(sig),
	}
}
