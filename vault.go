package powerauth

import (
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"

	"github.com/awnumar/memguard"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// PrepareVaultUnlock signs an empty POST body for uriID (normally
// /pa/vault/unlock) with the possession factor alone and the
// PREPARE_VAULT_UNLOCK bit set; unlockKeys.Password and
// unlockKeys.Biometry are not used. The possession factor is always
// required: the server only releases K_vault to a request it can
// attribute to this device.
func (s *Session) PrepareVaultUnlock(uriID string, unlockKeys SignatureUnlockKeys) (*SignedRequest, error) {
	auth := &PowerAuthAuthentication{
		Factors:     Possession | PrepareVaultUnlock,
		UnlockKeys:  unlockKeys,
		VaultUnlock: true,
	}
	return s.Sign("POST", uriID, nil, auth)
}

// transportKeyLocked unwraps K_transport under the possession unlock
// key. K_transport decrypts every server response wrapped for this
// device alone: the vault-unlock response and the activation status
// blob both use it.
func (s *Session) transportKeyLocked(possessionUnlock []byte) (*memguard.LockedBuffer, error) {
	if s.state != stateActive {
		return nil, newError("transportKey", MissingActivation, fmt.Errorf("session is %s, expected Active", s.state))
	}
	if len(s.active.transportKeyEnvelope) == 0 {
		return nil, newError("transportKey", InvalidActivationState, fmt.Errorf("no transport key on record"))
	}
	if len(possessionUnlock) == 0 {
		return nil, newError("transportKey", SignatureError, fmt.Errorf("possession unlock key not provided"))
	}

	transportKey, err := pacrypto.DecryptCBCZeroIV(possessionUnlock, s.active.transportKeyEnvelope)
	if err != nil {
		return nil, newError("transportKey", InvalidActivationData, err)
	}
	return memguard.NewBufferFromBytes(transportKey), nil
}

// vaultKeyLocked unwraps K_transport under the possession unlock key and
// uses it to decrypt the server's encrypted_vault_encryption_key,
// yielding K_vault in a memguard buffer the caller must Destroy.
func (s *Session) vaultKeyLocked(resp *VaultUnlockResponse, unlockKeys SignatureUnlockKeys) (*memguard.LockedBuffer, error) {
	transportBuf, err := s.transportKeyLocked(unlockKeys.Possession)
	if err != nil {
		return nil, err
	}
	defer transportBuf.Destroy()

	encVaultKey, err := base64.StdEncoding.DecodeString(resp.EncryptedVaultEncryptionKeyB64)
	if err != nil {
		return nil, newError("VaultUnlock", InvalidActivationData, err)
	}
	vaultKey, err := pacrypto.DecryptCBCZeroIV(transportBuf.Bytes(), encVaultKey)
	if err != nil {
		return nil, newError("VaultUnlock", InvalidActivationData, err)
	}
	return memguard.NewBufferFromBytes(vaultKey), nil
}

// SignWithDevicePrivateKey obtains K_vault, uses it to decrypt the
// server-issued device private key envelope, and signs SHA256(payload)
// with the recovered ECDSA key. It requires an activation that carries
// a device private key envelope, which not every deployment issues.
func (s *Session) SignWithDevicePrivateKey(resp *VaultUnlockResponse, unlockKeys SignatureUnlockKeys, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.active.devicePrivateKeyEnvelope) == 0 {
		return nil, newError("SignWithDevicePrivateKey", InvalidActivationState,
			fmt.Errorf("no device private key envelope on record"))
	}

	vaultKey, err := s.vaultKeyLocked(resp, unlockKeys)
	if err != nil {
		return nil, err
	}
	defer vaultKey.Destroy()

	scalar, err := pacrypto.DecryptCBCZeroIV(vaultKey.Bytes(), s.active.devicePrivateKeyEnvelope)
	if err != nil {
		return nil, newError("SignWithDevicePrivateKey", InvalidActivationData, err)
	}
	scalarBuf := memguard.NewBufferFromBytes(scalar)
	defer scalarBuf.Destroy()

	priv := new(ecdsa.PrivateKey)
	priv.Curve = pacurve()
	priv.D = bigFromBytes(scalarBuf.Bytes())
	priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(scalarBuf.Bytes())

	digest := pacrypto.SHA256(payload)
	sig, err := pacrypto.Sign(priv, digest)
	if err != nil {
		return nil, newError("SignWithDevicePrivateKey", SignatureError, err)
	}
	s.audit.Log(s.setup.InstanceID, "sign_with_device_key", true, nil)
	return sig, nil
}

// DeriveKeyAtIndex obtains K_vault and returns derive_k(K_vault, index),
// a 16-byte key the caller may use for application-specific encryption.
func (s *Session) DeriveKeyAtIndex(resp *VaultUnlockResponse, unlockKeys SignatureUnlockKeys, index uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vaultKey, err := s.vaultKeyLocked(resp, unlockKeys)
	if err != nil {
		return nil, err
	}
	defer vaultKey.Destroy()

	derived, err := pacrypto.DeriveK(vaultKey.Bytes(), index)
	if err != nil {
		return nil, newError("DeriveKeyAtIndex", SignatureError, err)
	}
	return derived, nil
}

// ChangePasswordValidated proves oldPassword correct by successfully
// obtaining K_vault — the vault-unlock request must have been signed
// with the knowledge factor derived from oldPassword — then performs
// the local re-encryption via changeUserPasswordLocked.
func (s *Session) ChangePasswordValidated(resp *VaultUnlockResponse, oldPassword, newPassword []byte, possessionUnlock []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vaultKey, err := s.vaultKeyLocked(resp, SignatureUnlockKeys{Possession: possessionUnlock, Password: oldPassword})
	if err != nil {
		return err
	}
	vaultKey.Destroy()

	if err := s.changeUserPasswordLocked(oldPassword, newPassword); err != nil {
		return err
	}
	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "change_password_validated", true, nil)
	return nil
}

// AddBiometryFactor obtains K_vault and enrolls the biometry factor with
// envelope[BIO] = AES(biometryUnlockKey, zero_iv, derive_k(K_vault, 3)),
// the path for enrolling biometry on an activation that did not enroll
// it at Commit time (§4.E). persistedBlob, if non-empty, is saved
// through the Store as the platform's biometric-gated blob (§3).
func (s *Session) AddBiometryFactor(resp *VaultUnlockResponse, possessionUnlock, biometryUnlockKey, persistedBlob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vaultKey, err := s.vaultKeyLocked(resp, SignatureUnlockKeys{Possession: possessionUnlock})
	if err != nil {
		return err
	}
	defer vaultKey.Destroy()

	kBiometry, err := pacrypto.DeriveK(vaultKey.Bytes(), 3)
	if err != nil {
		return newError("AddBiometryFactor", SignatureError, err)
	}
	env, err := pacrypto.EncryptCBCZeroIV(biometryUnlockKey, kBiometry)
	if err != nil {
		return newError("AddBiometryFactor", EncryptionFailed, err)
	}
	if s.active.envelopes == nil {
		s.active.envelopes = map[Factor][]byte{}
	}
	s.active.envelopes[Biometry] = env

	if err := s.persistBiometryBlob(persistedBlob); err != nil {
		return err
	}

	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "add_biometry_factor", true, nil)
	return nil
}
