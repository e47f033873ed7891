package powerauth

import (
	"errors"
	"fmt"
)

// Kind classifies an Error without requiring the caller to match on
// message text.
type Kind int

const (
	// NotConfigured means the Session has no valid Setup.
	NotConfigured Kind = iota
	// InvalidActivationState means the requested operation is
	// incompatible with the Session's current state.
	InvalidActivationState
	// MissingActivation means the state is Empty where Active was
	// required.
	MissingActivation
	// ActivationPending means the caller wanted a definitive status but
	// only local Pending state is available.
	ActivationPending
	// InvalidActivationCode means an activation code failed grammar or
	// checksum validation.
	InvalidActivationCode
	// InvalidActivationData means a cryptographic check failed: ECDSA
	// verification, AES-CBC padding, MAC mismatch, or a corrupt blob.
	InvalidActivationData
	// SignatureError means an internal inconsistency was hit while
	// producing a signature.
	SignatureError
	// EncryptionFailed means the non-personalized envelope used by
	// custom activation could not be sealed.
	EncryptionFailed
	// Network wraps an opaque error surfaced unchanged from the
	// transport collaborator.
	Network
	// BiometryCancelled means the biometric UI collaborator reported a
	// user cancellation.
	BiometryCancelled
)

func (k Kind) String() string {
	switch k {
	case NotConfigured:
		return "NotConfigured"
	case InvalidActivationState:
		return "InvalidActivationState"
	case MissingActivation:
		return "MissingActivation"
	case ActivationPending:
		return "ActivationPending"
	case InvalidActivationCode:
		return "InvalidActivationCode"
	case InvalidActivationData:
		return "InvalidActivationData"
	case SignatureError:
		return "SignatureError"
	case EncryptionFailed:
		return "EncryptionFailed"
	case Network:
		return "Network"
	case BiometryCancelled:
		return "BiometryCancelled"
	default:
		return "Unknown"
	}
}

// Error is the single error type the core returns. Callers branch on
// Kind via Is, not on message text.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("powerauth: %s: %s: %v", e.Op, e.Kind, e.err)
	}
	return fmt.Sprintf("powerauth: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// newError builds an *Error, wrapping cause if non-nil.
func newError(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, err: cause}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
