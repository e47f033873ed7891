package powerauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"southwinds.dev/powerauth/audit"
	"southwinds.dev/powerauth/persist"
)

// Property 3: deserialize(serialize(s)) == s, for every reachable
// state.
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		sess, _ := newTestSession(t)
		roundTrip(t, sess)
	})

	t.Run("Pending", func(t *testing.T) {
		sess, _ := newTestSession(t)
		code, err := ParseActivationCode("AAAAA-AAAAA-AAAAA-AAAAE")
		require.NoError(t, err)
		_, err = sess.ActivationCreateStep1(code, "device")
		require.NoError(t, err)
		roundTrip(t, sess)
	})

	t.Run("Active", func(t *testing.T) {
		sess, _ := activateSession(t, "1234")
		roundTrip(t, sess)
	})
}

func roundTrip(t *testing.T, sess *Session) {
	t.Helper()
	blob, err := sess.serializeLocked()
	require.NoError(t, err)

	fresh := &Session{setup: sess.setup, store: sess.store, audit: sess.audit}
	err = fresh.deserializeLocked(blob)
	require.NoError(t, err)

	assert.Equal(t, sess.state, fresh.state)
	assert.Equal(t, sess.pending, fresh.pending)
	assert.Equal(t, sess.active.activationID, fresh.active.activationID)
	assert.Equal(t, sess.active.activationIDShort, fresh.active.activationIDShort)
	assert.Equal(t, sess.active.envelopes, fresh.active.envelopes)
	assert.Equal(t, sess.active.counter, fresh.active.counter)
	assert.Equal(t, sess.active.transportKeyEnvelope, fresh.active.transportKeyEnvelope)
}

func TestDeserializeRejectsUnknownVersion(t *testing.T) {
	sess, _ := newTestSession(t)
	blob, err := sess.serializeLocked()
	require.NoError(t, err)

	blob[0] = 0xFF
	err = sess.deserializeLocked(blob)
	assert.Error(t, err)
	assert.True(t, Is(err, InvalidActivationData))
}

func TestNewSessionLoadsPersistedState(t *testing.T) {
	setup, _ := newTestSetup(t)
	dir := t.TempDir()
	store, err := persist.NewFileSystemStore(dir)
	require.NoError(t, err)

	sess, err := NewSession(setup, store, audit.NewNoOpLogger())
	require.NoError(t, err)
	assert.False(t, sess.HasValidActivation())

	code, err := ParseActivationCode("AAAAA-AAAAA-AAAAA-AAAAE")
	require.NoError(t, err)
	_, err = sess.ActivationCreateStep1(code, "device")
	require.NoError(t, err)

	reopened, err := NewSession(setup, store, audit.NewNoOpLogger())
	require.NoError(t, err)
	assert.True(t, reopened.HasPendingActivation())
}

func TestResetClearsActivation(t *testing.T) {
	sess, _ := activateSession(t, "1234")
	require.NoError(t, sess.Reset())
	assert.False(t, sess.HasValidActivation())
	assert.False(t, sess.HasPendingActivation())
	assert.True(t, sess.HasValidSetup())
}
