package powerauth

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
)

// ActivationState is the server-reported lifecycle stage decoded from an
// activation status blob, distinct from the Session's own local
// lifecycleState.
type ActivationState uint8

const (
	ActivationStateCreated ActivationState = iota + 1
	ActivationStateOTPUsed
	ActivationStateActive
	ActivationStateBlocked
	ActivationStateRemoved
)

func (a ActivationState) String() string {
	switch a {
	case ActivationStateCreated:
		return "Created"
	case ActivationStateOTPUsed:
		return "OTP_Used"
	case ActivationStateActive:
		return "Active"
	case ActivationStateBlocked:
		return "Blocked"
	case ActivationStateRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Status is the decoded content of an activation status blob.
type Status struct {
	Version          byte
	State            ActivationState
	ServerCounter    uint32
	FailedAttempts   byte
	MaxFailedAttempts byte
}

// DecodeStatus decrypts and parses a POST /pa/activation/status
// response's encrypted_status_blob. The blob is wrapped under
// K_transport with a zero IV, the same key that protects the
// vault-unlock response, since both are server payloads meant for this
// device alone rather than gated behind a user-supplied factor.
func (s *Session) DecodeStatus(resp *ActivationStatusResponse, possessionUnlock []byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transportBuf, err := s.transportKeyLocked(possessionUnlock)
	if err != nil {
		return Status{}, err
	}
	defer transportBuf.Destroy()

	encrypted, err := base64.StdEncoding.DecodeString(resp.EncryptedStatusBlobB64)
	if err != nil {
		return Status{}, newError("DecodeStatus", InvalidActivationData, err)
	}
	plain, err := pacrypto.DecryptCBCZeroIV(transportBuf.Bytes(), encrypted)
	if err != nil {
		return Status{}, newError("DecodeStatus", InvalidActivationData, err)
	}
	return decodeStatusBlob(plain)
}

func decodeStatusBlob(plain []byte) (Status, error) {
	if len(plain) < 8 {
		return Status{}, newError("DecodeStatus", InvalidActivationData, fmt.Errorf("status blob too short"))
	}
	state := ActivationState(plain[1])
	if state < ActivationStateCreated || state > ActivationStateRemoved {
		return Status{}, newError("DecodeStatus", InvalidActivationData, fmt.Errorf("unknown activation state %d", plain[1]))
	}
	return Status{
		Version:           plain[0],
		State:             state,
		ServerCounter:     binary.BigEndian.Uint32(plain[2:6]),
		FailedAttempts:    plain[6],
		MaxFailedAttempts: plain[7],
	}, nil
}
