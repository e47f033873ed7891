package persist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemStoreSaveLoadRemove(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	data := []byte("opaque session blob")
	require.NoError(t, store.Save("instance-1", data))

	loaded, err := store.Load("instance-1")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	updated := []byte("updated blob")
	require.NoError(t, store.Save("instance-1", updated))
	loaded, err = store.Load("instance-1")
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)

	require.NoError(t, store.Remove("instance-1"))
	_, err = store.Load("instance-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove("instance-1"))
}

func TestFileSystemStoreBiometryBlobIsSeparateNamespace(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("instance-1", []byte("state")))
	require.NoError(t, store.SaveBiometryBlob("instance-1", []byte("biometry")))

	require.NoError(t, store.RemoveBiometryBlob("instance-1"))

	state, err := store.Load("instance-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), state)

	_, err = store.LoadBiometryBlob("instance-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}
