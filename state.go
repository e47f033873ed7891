package powerauth

import "crypto/ecdsa"

// lifecycleState is the Session's state discriminant. Exactly one of
// Empty, Pending, Active, Broken holds at any time; the Session struct
// enforces this by keeping only the fields relevant to the current
// state populated and zeroing the rest on every transition.
type lifecycleState uint8

const (
	stateEmpty lifecycleState = iota
	statePending
	stateActive
	stateBroken
)

func (s lifecycleState) String() string {
	switch s {
	case stateEmpty:
		return "Empty"
	case statePending:
		return "Pending"
	case stateActive:
		return "Active"
	case stateBroken:
		return "Broken"
	default:
		return "Unknown"
	}
}

// pendingData holds the intermediate material produced by activation
// step 1, alive only while state == statePending.
type pendingData struct {
	devicePrivateKey  *ecdsa.PrivateKey
	activationIDShort string
	activationOTP     string

	// The following are populated by ActivationCreateStep2 and held only in
	// memory: per the component design, nothing is stored — not even
	// transiently to the persistence adapter — until Commit. Reloading
	// a Pending session from a serialized blob therefore always resumes
	// "before step 2", which is safe to redo.
	activationID             string
	serverPublicKey          *ecdsa.PublicKey
	derivedKeys              map[Factor][]byte
	transportKey             []byte
	fingerprint              string
	devicePrivateKeyEnvelope []byte
}

// activeData holds everything a committed activation needs to produce
// signatures, alive only while state == stateActive.
type activeData struct {
	activationID string
	// activationIDShort is retained from the Pending phase solely as
	// the PBKDF2 salt for the knowledge factor — it must stay identical
	// between ActivationCommit and every later Sign/change_user_password
	// call, so it is not recomputed from activationID.
	activationIDShort string
	serverPublicKey   *ecdsa.PublicKey
	// envelopes holds, per base factor (Possession/Knowledge/Biometry),
	// the AES-CBC-zero-IV-wrapped 16-byte signature key. A factor with
	// no entry was never enrolled.
	envelopes map[Factor][]byte
	// devicePrivateKeyEnvelope, if present, is the server-issued ECDSA
	// device private key, itself wrapped so only a vault-unlock can
	// recover it (see SignWithDevicePrivateKey).
	devicePrivateKeyEnvelope []byte
	// transportKeyEnvelope is K_transport wrapped under the possession
	// unlock key. K_transport gates no user-facing operation by itself
	// (it only decrypts a vault-unlock response) so it is device-bound
	// rather than behind the knowledge or biometry factor.
	transportKeyEnvelope []byte
	counter              uint64
}
