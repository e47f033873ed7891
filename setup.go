package powerauth

import (
	"crypto/ecdsa"
	"fmt"
)

// Setup carries the immutable, application-wide configuration a Session
// is constructed from. There is no package-level mutable configuration;
// every value a Session needs is passed in here, once, at construction
// time — mirroring the explicit-Options-into-constructor shape the rest
// of this module's ambient stack follows.
type Setup struct {
	// InstanceID keys this Session's persisted state in the Store.
	InstanceID string

	// ApplicationKey and ApplicationSecret identify the mobile
	// application to the server; ApplicationSecret is used as the HMAC
	// key for the activation step-1 application signature.
	ApplicationKey    []byte
	ApplicationSecret []byte

	// MasterServerPublicKey verifies the server's ECDSA signature over
	// its ephemeral key during activation step 2.
	MasterServerPublicKey *ecdsa.PublicKey

	// ExternalEncryptionKey, if set, is additionally mixed into the
	// possession unlock key derivation (device-related entropy beyond
	// what the platform keychain wrapper alone provides).
	ExternalEncryptionKey []byte

	// LockProcessMemory requests best-effort mlockall() on POSIX hosts
	// so factor-key material is never swapped to disk. Failure to lock
	// is non-fatal; see internal/mem.
	LockProcessMemory bool
}

// Validate checks Setup for the preconditions a Session cannot function
// without. Called by NewSession, so that no Session can be created with
// an invalid Setup, and by HasValidSetup.
func (s *Setup) Validate() error {
	if s.InstanceID == "" {
		return fmt.Errorf("powerauth: setup: instance ID is required")
	}
	if len(s.ApplicationKey) == 0 {
		return fmt.Errorf("powerauth: setup: application key is required")
	}
	if len(s.ApplicationSecret) == 0 {
		return fmt.Errorf("powerauth: setup: application secret is required")
	}
	if s.MasterServerPublicKey == nil {
		return fmt.Errorf("powerauth: setup: master server public key is required")
	}
	return nil
}
