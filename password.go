package powerauth

import (
	"fmt"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// ChangePasswordUnsafe locally re-encrypts the knowledge-key envelope
// from oldPassword to newPassword without verifying that oldPassword is
// actually correct: it decrypts with pbkdf2(old) and re-encrypts with
// pbkdf2(new). It fails when the knowledge envelope is missing or does
// not decrypt to valid PKCS7 padding. A wrong old password usually
// produces invalid padding and so fails here, but about 1 time in 256 the
// padding happens to be valid: the call then succeeds and the new
// envelope silently unwraps to garbage on the next Sign.
//
// Callers that need certainty the old password was correct must go
// through ChangePasswordValidated, which proves it via a signed
// vault-unlock before calling into the same underlying logic.
func (s *Session) ChangePasswordUnsafe(oldPassword, newPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.changeUserPasswordLocked(oldPassword, newPassword); err != nil {
		return err
	}
	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "change_password_unsafe", true, nil)
	return nil
}

func (s *Session) changeUserPasswordLocked(oldPassword, newPassword []byte) error {
	if s.state != stateActive {
		return newError("ChangePassword", MissingActivation, fmt.Errorf("session is %s, expected Active", s.state))
	}
	envelope, ok := s.active.envelopes[Knowledge]
	if !ok {
		return newError("ChangePassword", InvalidActivationState, fmt.Errorf("knowledge factor was not enrolled"))
	}

	oldUnlock := pacrypto.DeriveKnowledgeKey(oldPassword, []byte(s.active.activationIDShort))
	plain, err := pacrypto.DecryptCBCZeroIV(oldUnlock, envelope)
	if err != nil {
		return newError("ChangePassword", InvalidActivationData, err)
	}

	newUnlock := pacrypto.DeriveKnowledgeKey(newPassword, []byte(s.active.activationIDShort))
	newEnvelope, err := pacrypto.EncryptCBCZeroIV(newUnlock, plain)
	if err != nil {
		return newError("ChangePassword", EncryptionFailed, err)
	}
	s.active.envelopes[Knowledge] = newEnvelope
	return nil
}

// persistBiometryBlob saves the platform's biometric-gated blob through
// the Store, as PersistedBiometryBlob (§3): the raw factor key protected
// by whatever the platform biometry API returns, not the AES envelope
// itself. Called by AddBiometryFactor after it sets envelope[Biometry];
// ActivationCommit takes no blob and does not call it.
func (s *Session) persistBiometryBlob(persistedBlob []byte) error {
	if len(persistedBlob) == 0 {
		return nil
	}
	if err := s.store.SaveBiometryBlob(s.setup.InstanceID, persistedBlob); err != nil {
		s.audit.Log(s.setup.InstanceID, "add_biometry_factor", false, map[string]interface{}{"error": err.Error()})
		return newError("AddBiometryFactor", InvalidActivationData, err)
	}
	return nil
}

// RemoveBiometryFactor drops the biometry envelope and any persisted
// biometric-gated blob. Removing an unenrolled factor is not an error.
func (s *Session) RemoveBiometryFactor() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return newError("RemoveBiometryFactor", MissingActivation, fmt.Errorf("session is %s, expected Active", s.state))
	}

	delete(s.active.envelopes, Biometry)
	if err := s.store.RemoveBiometryBlob(s.setup.InstanceID); err != nil {
		s.audit.Log(s.setup.InstanceID, "remove_biometry_factor", false, map[string]interface{}{"error": err.Error()})
		return newError("RemoveBiometryFactor", InvalidActivationData, err)
	}

	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "remove_biometry_factor", true, nil)
	return nil
}
