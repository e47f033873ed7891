package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultsToNoOp(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	_, ok := logger.(*NoOpLogger)
	assert.True(t, ok)

	logger, err = NewLogger(&Config{Enabled: false})
	require.NoError(t, err)
	_, ok = logger.(*NoOpLogger)
	assert.True(t, ok)
}

func TestNewLoggerUnknownBackend(t *testing.T) {
	_, err := NewLogger(&Config{Enabled: true, Type: "unknown"})
	assert.Error(t, err)
}

func TestFileLoggerLogAndQuery(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewLogger(&Config{
		Enabled: true,
		Type:    FileBackend,
		Options: map[string]interface{}{"file_path": logFile},
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("device-a", "sign", true, map[string]interface{}{"factor": "possession"}))
	require.NoError(t, logger.Log("device-b", "sign", false, map[string]interface{}{"error": "bad mac"}))

	result, err := logger.Query(QueryOptions{Action: "sign"})
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)

	successOnly := true
	result, err = logger.Query(QueryOptions{Action: "sign", Success: &successOnly})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "possession", result.Events[0].Factor)

	result, err = logger.Query(QueryOptions{InstanceID: "device-b"})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "bad mac", result.Events[0].Error)
}

func TestNoOpLoggerIsInert(t *testing.T) {
	logger := NewNoOpLogger()
	assert.NoError(t, logger.Log("device-a", "anything", true, nil))
	result, err := logger.Query(QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.NoError(t, logger.Close())
}
