package powerauth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/awnumar/memguard"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

var modulus8Digits = big.NewInt(100000000)

// factorOrder is the fixed ordering signature MACs are computed and
// concatenated in, regardless of the order Factors bits are set.
var factorOrder = []Factor{Possession, Knowledge, Biometry}

// factorSalt returns the per-factor HMAC salt, distinguishing regular
// signatures from vault-unlock-flavored ones without changing the
// header format.
func factorSalt(factor Factor, vaultUnlock bool) []byte {
	suffix := byte(0)
	if vaultUnlock {
		suffix = 1
	}
	return []byte{byte(factor), suffix}
}

// Sign builds and returns the X-PowerAuth-Authorization header for one
// HTTP request, ratcheting the counter exactly once regardless of what
// the caller subsequently does with the header. The Session must be
// Active.
func (s *Session) Sign(method, uriID string, body []byte, auth *PowerAuthAuthentication) (*SignedRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == statePending {
		return nil, newError("Sign", ActivationPending, fmt.Errorf("activation has not been committed"))
	}
	if s.state != stateActive {
		return nil, newError("Sign", MissingActivation, fmt.Errorf("session is %s, expected Active", s.state))
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, newError("Sign", SignatureError, err)
	}

	base := s.signatureBaseString(method, uriID, body, nonce)

	digits := make([]string, 0, 3)
	base32Order := factorOrder
	for _, f := range base32Order {
		if !auth.Factors.baseMask().Has(f) {
			continue
		}
		key, err := s.unlockFactorLocked(f, auth.UnlockKeys)
		if err != nil {
			return nil, err
		}
		mac := macForFactor(key, base, s.active.counter, factorSalt(f, auth.VaultUnlock))
		key.Destroy()
		digits = append(digits, mac)
	}
	if len(digits) == 0 {
		return nil, newError("Sign", SignatureError, fmt.Errorf("no factor keys unlocked"))
	}

	header := fmt.Sprintf(
		`PowerAuth pa_activation_id="%s", pa_application_key="%s", pa_nonce="%s", pa_signature_type="%s", pa_signature="%s", pa_version="2.1"`,
		s.active.activationID,
		base64.StdEncoding.EncodeToString(s.setup.ApplicationKey),
		base64.StdEncoding.EncodeToString(nonce),
		auth.Factors.baseMask().String(),
		strings.Join(digits, "-"),
	)

	// Ratchet before releasing the lock: two concurrent Sign calls must
	// never observe the same counter value.
	s.active.counter++
	s.saveLocked()
	s.audit.Log(s.setup.InstanceID, "sign", true, map[string]interface{}{"factor": auth.Factors.baseMask().String()})

	return &SignedRequest{
		Method:              method,
		URIID:               uriID,
		Body:                body,
		AuthorizationHeader: header,
	}, nil
}

// signatureBaseString builds application_key + "&" + method + "&" +
// base64(uri_id) + "&" + base64(body) + "&" + base64(nonce).
func (s *Session) signatureBaseString(method, uriID string, body, nonce []byte) []byte {
	parts := []string{
		base64.StdEncoding.EncodeToString(s.setup.ApplicationKey),
		method,
		base64.StdEncoding.EncodeToString([]byte(uriID)),
		base64.StdEncoding.EncodeToString(body),
		base64.StdEncoding.EncodeToString(nonce),
	}
	return []byte(strings.Join(parts, "&"))
}

// unlockFactorLocked decrypts one factor's envelope into a
// memguard-protected buffer the caller must Destroy once the MAC has
// been computed.
func (s *Session) unlockFactorLocked(factor Factor, unlockKeys SignatureUnlockKeys) (*memguard.LockedBuffer, error) {
	envelope, ok := s.active.envelopes[factor]
	if !ok {
		return nil, newError("Sign", InvalidActivationState,
			fmt.Errorf("factor %s was not enrolled", factor))
	}

	var unlockKey []byte
	switch factor {
	case Possession:
		if len(unlockKeys.Possession) > 0 {
			unlockKey = unlockKeys.Possession
		} else {
			return nil, newError("Sign", SignatureError, fmt.Errorf("possession unlock key not provided"))
		}
	case Knowledge:
		if len(unlockKeys.Password) == 0 {
			return nil, newError("Sign", SignatureError, fmt.Errorf("password not provided"))
		}
		unlockKey = pacrypto.DeriveKnowledgeKey(unlockKeys.Password, []byte(s.knowledgeSaltLocked()))
	case Biometry:
		if len(unlockKeys.Biometry) == 0 {
			return nil, newError("Sign", SignatureError, fmt.Errorf("biometry unlock key not provided"))
		}
		unlockKey = unlockKeys.Biometry
	}

	plain, err := pacrypto.DecryptCBCZeroIV(unlockKey, envelope)
	if err != nil {
		// A wrong unlock key must not corrupt the session — this is a
		// transient failure, the envelope and state are untouched.
		return nil, newError("Sign", InvalidActivationData, err)
	}
	buf := memguard.NewBufferFromBytes(plain)
	return buf, nil
}

// knowledgeSaltLocked returns activation_id_short, the fixed PBKDF2 salt
// for the knowledge factor, carried over from the Pending phase.
func (s *Session) knowledgeSaltLocked() string {
	return s.active.activationIDShort
}

// macForFactor computes HMAC(key, base ‖ counter_be16 ‖ salt),
// truncates to 16 bytes, and formats it as 8 zero-padded decimal
// digits.
func macForFactor(key *memguard.LockedBuffer, base []byte, counter uint64, salt []byte) string {
	var counterBuf [16]byte
	binary.BigEndian.PutUint64(counterBuf[8:], counter)

	data := make([]byte, 0, len(base)+len(counterBuf)+len(salt))
	data = append(data, base...)
	data = append(data, counterBuf[:]...)
	data = append(data, salt...)

	mac := pacrypto.HMACTrunc16(key.Bytes(), data)
	v := new(big.Int).Mod(new(big.Int).SetBytes(mac), modulus8Digits)
	return fmt.Sprintf("%08d", v.Uint64())
}
