package powerauth

import "fmt"

// Factor is the bitmask of authentication inputs a signature (or vault
// unlock request) is built from.
type Factor uint8

const (
	Possession Factor = 1 << iota
	Knowledge
	Biometry

	// PrepareVaultUnlock is ORed into a signature's factor mask to
	// request a vault-unlock-flavored signature: it changes the
	// per-factor salt so the server can distinguish these signatures
	// from ordinary ones without altering the HTTP header format.
	PrepareVaultUnlock Factor = 1 << 7
)

// baseMask strips PrepareVaultUnlock, leaving just the POSS/KNOW/BIO
// bits, which determine which unlock keys are required.
func (f Factor) baseMask() Factor {
	return f &^ PrepareVaultUnlock
}

// Has reports whether f includes factor.
func (f Factor) Has(factor Factor) bool {
	return f&factor != 0
}

func (f Factor) String() string {
	base := f.baseMask()
	parts := make([]string, 0, 3)
	if base.Has(Possession) {
		parts = append(parts, "possession")
	}
	if base.Has(Knowledge) {
		parts = append(parts, "knowledge")
	}
	if base.Has(Biometry) {
		parts = append(parts, "biometry")
	}
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "_"
		}
		s += p
	}
	return s
}

// SignatureUnlockKeys is the transient triple of unlock keys a caller
// supplies for one operation. It is never persisted in cleartext. This
// module does not zero these slices; they stay as the caller passed them.
type SignatureUnlockKeys struct {
	// Possession is the possession unlock key. ActivationCommit and every
	// Sign that uses the possession factor require it; no default is
	// substituted when it is empty. It may be the value returned by
	// DefaultPossessionUnlockKey or one from another source, such as a
	// hardware token.
	Possession []byte
	Biometry   []byte
	// Password is the raw user-entered knowledge secret; it is
	// PBKDF2-normalized internally, never used directly as a key.
	Password []byte
}

// PowerAuthAuthentication is caller intent: which factors to use for one
// signed operation.
type PowerAuthAuthentication struct {
	Factors     Factor
	UnlockKeys  SignatureUnlockKeys
	VaultUnlock bool
}

// NewAuthentication validates factors is non-empty before an
// authentication object can exist — the source's runtime
// "widen-to-all-factors-if-none-selected" fallback is replaced by a
// constructor-time error, per the factor-selection design note.
func NewAuthentication(factors Factor, unlockKeys SignatureUnlockKeys) (*PowerAuthAuthentication, error) {
	if factors.baseMask() == 0 {
		return nil, fmt.Errorf("powerauth: authentication requires at least one factor")
	}
	auth := &PowerAuthAuthentication{Factors: factors, UnlockKeys: unlockKeys}
	if factors.Has(PrepareVaultUnlock) {
		auth.VaultUnlock = true
	}
	return auth, nil
}
