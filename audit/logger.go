// Package audit records state-changing PowerAuth operations for later
// inspection. It has no bearing on protocol correctness; a Session works
// identically with audit.NoOpLogger or audit.FileLogger wired in.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config selects and configures an audit backend.
type Config struct {
	Enabled  bool                   `json:"enabled"`
	Type     BackendType            `json:"type"`
	Options  map[string]interface{} `json:"options"`
	LogLevel string                 `json:"log_level,omitempty"`
}

// BackendType names a concrete Logger implementation.
type BackendType string

const (
	FileBackend BackendType = "file"
	NoOpBackend BackendType = ""
)

// Logger is the audit sink every state-changing Session operation writes
// through. A single backend can be shared by Sessions for different
// instance IDs (e.g. multiple activated accounts on one device); the
// caller identifies which instance an event belongs to on every call so
// Query can scope results to one of them. Implementations must be safe
// for concurrent use.
type Logger interface {
	Log(instanceID, action string, success bool, metadata map[string]interface{}) error
	Query(options QueryOptions) (QueryResult, error)
	Close() error
}

// Event is a single recorded operation.
type Event struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	InstanceID string                 `json:"instance_id"`
	Action     string                 `json:"action"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Factor     string                 `json:"factor,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// QueryOptions filters a Query call.
type QueryOptions struct {
	InstanceID string
	Since      *time.Time
	Until      *time.Time
	Action     string
	Success    *bool
	Limit      int
	Offset     int
}

// QueryResult is the outcome of a Query call.
type QueryResult struct {
	Events     []Event `json:"events"`
	TotalCount int     `json:"total_count"`
	Filtered   int     `json:"filtered"`
	HasMore    bool    `json:"has_more"`
}

// NewLogger builds the Logger named by config. A nil or disabled config
// yields a NoOpLogger.
func NewLogger(config *Config) (Logger, error) {
	if config == nil || !config.Enabled {
		return &NoOpLogger{}, nil
	}

	switch config.Type {
	case FileBackend:
		return NewFileLogger(config)
	case NoOpBackend:
		return &NoOpLogger{}, nil
	default:
		return nil, fmt.Errorf("audit: unknown backend %q", config.Type)
	}
}

func parseOptions(options map[string]interface{}, target interface{}) error {
	if len(options) == 0 {
		return nil
	}
	jsonData, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("audit: marshal options: %w", err)
	}
	if err = json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("audit: unmarshal options: %w", err)
	}
	return nil
}

func generateEventID() string {
	return uuid.NewString()
}
