// Package powerauth implements the client-side core of the PowerAuth
// multi-factor authentication and transaction-signing protocol: the
// activation state machine, the factor-key unlock/derive pipeline, and
// the HTTP signature protocol, together with the persistence of
// encrypted local state.
//
// The transport client, the platform keychain wrapper, the biometric
// prompt UI, and release tooling are all external collaborators; this
// package only defines the interfaces it needs from them.
package powerauth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"southwinds.dev/powerauth/audit"
	"southwinds.dev/powerauth/internal/mem"
	"southwinds.dev/powerauth/persist"
)

func init() {
	// Ensure a killed process still wipes any memguard-protected key
	// material rather than leaving it in a core dump or swap.
	memguard.CatchInterrupt()
}

// Session is the central entity: one per configured instance ID, guarded
// by a single exclusive lock. The transport and biometric UI
// collaborators are invoked by the facade outside the lock (see the
// concurrency model in SPEC_FULL.md §5); the persist.Store and the audit
// Logger are called while the lock is held.
type Session struct {
	mu    sync.Mutex
	setup Setup
	store persist.Store
	audit audit.Logger

	state   lifecycleState
	pending pendingData
	active  activeData
}

// NewSession validates setup and, if store already holds a serialized
// blob for setup.InstanceID, loads it. A Session can never be created
// with an invalid Setup; only Destroy, which discards the Setup, makes
// HasValidSetup() report false.
func NewSession(setup Setup, store persist.Store, logger audit.Logger) (*Session, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = audit.NewNoOpLogger()
	}

	if setup.LockProcessMemory {
		if _, err := mem.Lock(); err != nil {
			logger.Log(setup.InstanceID, "session_memory_lock", false, map[string]interface{}{"error": err.Error()})
		}
	}

	s := &Session{
		setup: setup,
		store: store,
		audit: logger,
		state: stateEmpty,
	}

	blob, err := store.Load(setup.InstanceID)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return s, nil
		}
		return nil, newError("NewSession", InvalidActivationData, err)
	}
	if err := s.deserializeLocked(blob); err != nil {
		return nil, err
	}
	return s, nil
}

// HasValidSetup reports true for a Session returned by NewSession — the
// constructor-time check rejects an invalid Setup — until Destroy
// discards the Setup, after which it reports false.
func (s *Session) HasValidSetup() bool {
	return s.setup.Validate() == nil
}

func (s *Session) HasPendingActivation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePending
}

func (s *Session) HasValidActivation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

func (s *Session) HasBiometryFactor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return false
	}
	_, ok := s.active.envelopes[Biometry]
	return ok
}

// ActivationID returns the committed activation ID, or "" if the
// Session is not Active.
func (s *Session) ActivationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return ""
	}
	return s.active.activationID
}

// Reset transitions the Session to Empty, dropping its references to all
// key material (the underlying byte slices are not overwritten) and
// removing the persisted blob. Per the testable properties, Reset from
// any state leaves HasValidSetup() && !HasValidActivation() &&
// !HasPendingActivation().
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Session) resetLocked() error {
	s.pending = pendingData{}
	s.active = activeData{}
	s.state = stateEmpty

	if err := s.store.Remove(s.setup.InstanceID); err != nil {
		s.audit.Log(s.setup.InstanceID, "reset", false, map[string]interface{}{"error": err.Error()})
		return newError("Reset", InvalidActivationData, err)
	}
	s.audit.Log(s.setup.InstanceID, "reset", true, nil)
	return nil
}

// Destroy drops the Session's references to all key material (the
// underlying byte slices are not overwritten) and marks the Session
// terminally unusable. Unlike Reset, a destroyed Session's Setup is also
// discarded; no further operation is valid on it.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	instanceID := s.setup.InstanceID
	s.pending = pendingData{}
	s.active = activeData{}
	s.state = stateBroken
	s.setup = Setup{}
	s.audit.Log(instanceID, "destroy", true, nil)
}

// breakLocked transitions to Broken, a terminal state until an explicit
// Reset, and reports reason as InvalidActivationData. No operation in
// this package calls it at present.
func (s *Session) breakLocked(reason error) error {
	s.pending = pendingData{}
	s.active = activeData{}
	s.state = stateBroken
	s.audit.Log(s.setup.InstanceID, "session_broken", false, map[string]interface{}{"error": reason.Error()})
	return newError("session", InvalidActivationData, reason)
}

// saveLocked serializes and persists the current state. A failed save
// does not undo the in-memory mutation — it is logged as a non-fatal
// warning, per the persistence adapter's design (the in-memory counter
// remains authoritative for the next signature).
func (s *Session) saveLocked() {
	blob, err := s.serializeLocked()
	if err != nil {
		s.audit.Log(s.setup.InstanceID, "save", false, map[string]interface{}{"error": fmt.Sprintf("serialize: %v", err)})
		return
	}
	if err := s.store.Save(s.setup.InstanceID, blob); err != nil {
		s.audit.Log(s.setup.InstanceID, "save", false, map[string]interface{}{"error": err.Error()})
	}
}
