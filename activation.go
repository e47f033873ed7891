package powerauth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// ActivationCreateStep1 begins activation from a parsed ActivationCode.
// It generates the ephemeral device keypair, encrypts its public key
// under a PBKDF2-normalized activation OTP, and signs the request with the
// application secret. The Session moves Empty → Pending.
func (s *Session) ActivationCreateStep1(code *ActivationCode, activationName string) (*ActivationCreateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateEmpty {
		return nil, newError("ActivationCreateStep1", InvalidActivationState,
			fmt.Errorf("session is %s, expected Empty", s.state))
	}

	devicePriv, err := pacrypto.GenerateKeyPair()
	if err != nil {
		return nil, newError("ActivationCreateStep1", SignatureError, err)
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, newError("ActivationCreateStep1", SignatureError, err)
	}

	otpKey := pacrypto.DeriveOTPKey([]byte(code.ActivationOTP), []byte(code.ActivationIDShort))
	devicePubRaw := pacrypto.CompressPoint(devicePriv.PublicKey.X, devicePriv.PublicKey.Y)
	encryptedDevicePub, err := pacrypto.EncryptCBC(otpKey, nonce, devicePubRaw)
	if err != nil {
		return nil, newError("ActivationCreateStep1", EncryptionFailed, err)
	}

	appSigData := append([]byte(code.ActivationIDShort+code.ActivationOTP), s.setup.ApplicationKey...)
	appSignature := pacrypto.HMACTrunc16(s.setup.ApplicationSecret, appSigData)

	s.pending = pendingData{
		devicePrivateKey:  devicePriv,
		activationIDShort: code.ActivationIDShort,
		activationOTP:     code.ActivationOTP,
	}
	s.state = statePending
	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "activation_step1", true, nil)

	return &ActivationCreateRequest{
		ActivationIDShort:           code.ActivationIDShort,
		ActivationName:              activationName,
		ActivationNonceB64:          base64.StdEncoding.EncodeToString(nonce),
		ApplicationKeyB64:           base64.StdEncoding.EncodeToString(s.setup.ApplicationKey),
		ApplicationSignatureB64:     base64.StdEncoding.EncodeToString(appSignature),
		EncryptedDevicePublicKeyB64: base64.StdEncoding.EncodeToString(encryptedDevicePub),
		EphemeralPublicKeyB64:       base64.StdEncoding.EncodeToString(devicePubRaw),
	}, nil
}

// ActivationCreateStep2 verifies the server's response, derives the
// master secret and every factor key from it, and computes the human
// verification fingerprint. It does not persist anything: the derived
// keys are held transiently until Commit wraps them behind unlock keys.
// On any cryptographic failure the Session self-resets to Empty.
func (s *Session) ActivationCreateStep2(resp *ActivationCreateResponse) (fingerprint string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePending {
		return "", newError("ActivationCreateStep2", InvalidActivationState,
			fmt.Errorf("session is %s, expected Pending", s.state))
	}

	serverEphemeralPub, err := base64.StdEncoding.DecodeString(resp.EphemeralPublicKeyB64)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decode ephemeral public key: %w", err))
	}
	encServerPub, err := base64.StdEncoding.DecodeString(resp.EncryptedServerPublicKeyB64)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decode encrypted server public key: %w", err))
	}
	signature, err := base64.StdEncoding.DecodeString(resp.EncryptedServerPublicKeySignatureB64)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decode signature: %w", err))
	}
	serverNonce, err := base64.StdEncoding.DecodeString(resp.ActivationNonceB64)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decode server nonce: %w", err))
	}

	digest := pacrypto.SHA256(append(append([]byte{}, serverEphemeralPub...), encServerPub...))
	if !pacrypto.Verify(s.setup.MasterServerPublicKey, digest, signature) {
		return "", s.failStep2(fmt.Errorf("server signature verification failed"))
	}

	ephX, ephY, err := pacrypto.DecompressPoint(serverEphemeralPub)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decompress ephemeral public key: %w", err))
	}
	sharedSecret := pacrypto.SharedSecret(s.pending.devicePrivateKey, ephX, ephY)

	serverPubRaw, err := pacrypto.DecryptCBC(sharedSecret[:16], serverNonce, encServerPub)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decrypt server public key: %w", err))
	}
	serverPubX, serverPubY, err := pacrypto.DecompressPoint(serverPubRaw)
	if err != nil {
		return "", s.failStep2(fmt.Errorf("decompress server public key: %w", err))
	}

	masterSecretFull := pacrypto.SharedSecret(s.pending.devicePrivateKey, serverPubX, serverPubY)
	masterSecret := masterSecretFull[:16]

	kPossession, err := pacrypto.DeriveK(masterSecret, 1)
	if err != nil {
		return "", s.failStep2(err)
	}
	kKnowledge, err := pacrypto.DeriveK(masterSecret, 2)
	if err != nil {
		return "", s.failStep2(err)
	}
	kBiometry, err := pacrypto.DeriveK(masterSecret, 3)
	if err != nil {
		return "", s.failStep2(err)
	}
	kTransport, err := pacrypto.DeriveK(masterSecret, 1000)
	if err != nil {
		return "", s.failStep2(err)
	}

	devicePubRaw := pacrypto.CompressPoint(s.pending.devicePrivateKey.PublicKey.X, s.pending.devicePrivateKey.PublicKey.Y)
	fp := pacrypto.SHA256(append(append([]byte{}, devicePubRaw...), []byte(resp.ActivationID)...))
	s.pending.fingerprint = formatFingerprint(fp)
	s.pending.activationID = resp.ActivationID
	s.pending.serverPublicKey = &ecdsa.PublicKey{Curve: pacurve(), X: serverPubX, Y: serverPubY}
	s.pending.derivedKeys = map[Factor][]byte{
		Possession: kPossession,
		Knowledge:  kKnowledge,
		Biometry:   kBiometry,
	}
	s.pending.transportKey = kTransport

	if resp.DevicePrivateKeyEnvelopeB64 != "" {
		env, err := base64.StdEncoding.DecodeString(resp.DevicePrivateKeyEnvelopeB64)
		if err != nil {
			return "", s.failStep2(fmt.Errorf("decode device private key envelope: %w", err))
		}
		s.pending.devicePrivateKeyEnvelope = env
	}

	s.audit.Log(s.setup.InstanceID, "activation_step2", true, nil)
	return s.pending.fingerprint, nil
}

// failStep2 resets directly to Empty (the Session never enters Broken
// here), removes the persisted Pending blob, and reports the failure as
// InvalidActivationData: step 2 has not committed anything an operator
// needs to recover.
func (s *Session) failStep2(cause error) error {
	s.pending = pendingData{}
	s.state = stateEmpty
	s.store.Remove(s.setup.InstanceID)
	s.audit.Log(s.setup.InstanceID, "activation_step2", false, map[string]interface{}{"error": cause.Error()})
	return newError("ActivationCreateStep2", InvalidActivationData, cause)
}

// ActivationCommit wraps each provided factor's derived key with its
// unlock key and transitions Pending → Active, initializing the
// counter to 0. Only factors present here are usable thereafter; a
// factor may be added later only through a vault-unlock.
//
// unlockKeys.Possession is required: it becomes the possession unlock
// key that every subsequent Sign call must also supply. Callers that
// have no hardware-token-backed possession secret of their own should
// call DefaultPossessionUnlockKey first (while the Session is still
// Pending) and persist that value in the platform keychain.
func (s *Session) ActivationCommit(unlockKeys SignatureUnlockKeys) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePending {
		return newError("ActivationCommit", InvalidActivationState,
			fmt.Errorf("session is %s, expected Pending", s.state))
	}
	if s.pending.derivedKeys == nil {
		return newError("ActivationCommit", InvalidActivationState,
			fmt.Errorf("activation step 2 has not completed"))
	}
	if len(unlockKeys.Possession) == 0 {
		return newError("ActivationCommit", SignatureError,
			fmt.Errorf("possession unlock key not provided"))
	}

	envelopes := map[Factor][]byte{}

	possUnlock := unlockKeys.Possession
	env, err := pacrypto.EncryptCBCZeroIV(possUnlock, s.pending.derivedKeys[Possession])
	if err != nil {
		return newError("ActivationCommit", SignatureError, err)
	}
	envelopes[Possession] = env

	transportEnv, err := pacrypto.EncryptCBCZeroIV(possUnlock, s.pending.transportKey)
	if err != nil {
		return newError("ActivationCommit", SignatureError, err)
	}

	if len(unlockKeys.Password) > 0 {
		knowUnlock := pacrypto.DeriveKnowledgeKey(unlockKeys.Password, []byte(s.pending.activationIDShort))
		env, err := pacrypto.EncryptCBCZeroIV(knowUnlock, s.pending.derivedKeys[Knowledge])
		if err != nil {
			return newError("ActivationCommit", SignatureError, err)
		}
		envelopes[Knowledge] = env
	}

	if len(unlockKeys.Biometry) > 0 {
		env, err := pacrypto.EncryptCBCZeroIV(unlockKeys.Biometry, s.pending.derivedKeys[Biometry])
		if err != nil {
			return newError("ActivationCommit", SignatureError, err)
		}
		envelopes[Biometry] = env
	}

	s.active = activeData{
		activationID:             s.pending.activationID,
		activationIDShort:        s.pending.activationIDShort,
		serverPublicKey:          s.pending.serverPublicKey,
		envelopes:                envelopes,
		devicePrivateKeyEnvelope: s.pending.devicePrivateKeyEnvelope,
		transportKeyEnvelope:     transportEnv,
		counter:                  0,
	}
	s.pending = pendingData{}
	s.state = stateActive
	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "activation_commit", true, map[string]interface{}{"factor": (Possession | Knowledge | Biometry).String()})
	return nil
}

// DefaultPossessionUnlockKey computes SHA256-trunc16(device_pub_raw
// [‖ external_encryption_key]), a device-bound possession unlock key
// derived from material this Session already holds. It is available
// only in Pending state, between ActivationCreateStep2 and Commit — a
// platform wrapper with no hardware-token secret of its own calls this
// once, stores the result in the keychain, and supplies it as
// SignatureUnlockKeys.Possession to every Commit and Sign call
// thereafter. Callers with their own device-bound secret (e.g. a
// hardware token) skip this and use their own value instead.
func (s *Session) DefaultPossessionUnlockKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePending || s.pending.devicePrivateKey == nil || s.pending.derivedKeys == nil {
		return nil, newError("DefaultPossessionUnlockKey", InvalidActivationState,
			fmt.Errorf("session is %s, expected Pending with step 2 completed", s.state))
	}
	return possessionUnlockKey(s.pending.devicePrivateKey, s.setup.ExternalEncryptionKey), nil
}

// possessionUnlockKey folds device-related entropy into the 16-byte
// possession unlock key: SHA256-trunc16 of the device's public key
// point, optionally mixed with an external encryption key supplied by
// the platform keychain wrapper.
func possessionUnlockKey(devicePriv *ecdsa.PrivateKey, externalKey []byte) []byte {
	raw := pacrypto.CompressPoint(devicePriv.PublicKey.X, devicePriv.PublicKey.Y)
	if len(externalKey) > 0 {
		raw = append(append([]byte{}, raw...), externalKey...)
	}
	return pacrypto.SHA256Trunc16(raw)
}
