package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileLogger appends one JSON object per line to a log file, fsyncing
// after every write so a crash never loses the most recent event.
type FileLogger struct {
	file       *os.File
	mu         sync.RWMutex
	fileOpts   FileOptions
	eventCache []Event
	cacheSize  int
}

type FileOptions struct {
	FilePath string `json:"file_path"`
}

func NewFileLogger(config *Config) (*FileLogger, error) {
	var fileOpts FileOptions
	if err := parseOptions(config.Options, &fileOpts); err != nil {
		return nil, fmt.Errorf("audit: invalid file logger options: %w", err)
	}
	if fileOpts.FilePath == "" {
		return nil, fmt.Errorf("audit: file_path is required for file logger")
	}

	if err := os.MkdirAll(filepath.Dir(fileOpts.FilePath), 0700); err != nil {
		return nil, fmt.Errorf("audit: create log directory: %w", err)
	}

	file, err := os.OpenFile(fileOpts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}

	return &FileLogger{
		file:       file,
		fileOpts:   fileOpts,
		eventCache: make([]Event, 0),
		cacheSize:  1000,
	}, nil
}

func (fl *FileLogger) Log(instanceID, action string, success bool, metadata map[string]interface{}) error {
	event := Event{
		ID:         generateEventID(),
		Timestamp:  time.Now().UTC(),
		InstanceID: instanceID,
		Action:     action,
		Success:    success,
		Metadata:   metadata,
	}
	if factor, ok := metadata["factor"].(string); ok {
		event.Factor = factor
	}
	if !success {
		if errMsg, ok := metadata["error"].(string); ok {
			event.Error = errMsg
		}
	}
	return fl.writeEvent(event)
}

func (fl *FileLogger) writeEvent(event Event) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if err := fl.ensureFileOpen(); err != nil {
		return err
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: serialize event: %w", err)
	}
	if _, err = fl.file.WriteString(string(eventJSON) + "\n"); err != nil {
		return fmt.Errorf("audit: write event: %w", err)
	}
	if err = fl.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync log: %w", err)
	}

	fl.updateCache(event)
	return nil
}

func (fl *FileLogger) updateCache(event Event) {
	fl.eventCache = append(fl.eventCache, event)
	if len(fl.eventCache) > fl.cacheSize {
		fl.eventCache = fl.eventCache[len(fl.eventCache)-fl.cacheSize:]
	}
}

func (fl *FileLogger) Query(options QueryOptions) (QueryResult, error) {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	if fl.canUseCacheForQuery(options) {
		return fl.queryFromCache(options), nil
	}
	return fl.queryFromFile(options)
}

func (fl *FileLogger) canUseCacheForQuery(options QueryOptions) bool {
	if len(fl.eventCache) == 0 {
		return false
	}
	if options.Since == nil && options.Until == nil {
		return false
	}
	oldestCached := fl.eventCache[0].Timestamp
	if options.Since != nil && options.Since.Before(oldestCached) {
		return false
	}
	return true
}

func (fl *FileLogger) queryFromCache(options QueryOptions) QueryResult {
	var filtered []Event
	for _, event := range fl.eventCache {
		if fl.matchesFilter(event, options) {
			filtered = append(filtered, event)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	if options.Limit > 0 && len(filtered) > options.Limit {
		filtered = filtered[:options.Limit]
	}
	return QueryResult{
		Events:     filtered,
		TotalCount: len(fl.eventCache),
		Filtered:   len(filtered),
		HasMore:    len(filtered) == options.Limit,
	}
}

func (fl *FileLogger) queryFromFile(options QueryOptions) (QueryResult, error) {
	events, totalCount, err := fl.readEventsFromFile(fl.file.Name(), options)
	if err != nil {
		return QueryResult{}, fmt.Errorf("audit: read log file: %w", err)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	start := options.Offset
	if start > len(events) {
		start = len(events)
	}
	end := len(events)
	if options.Limit > 0 {
		end = start + options.Limit
		if end > len(events) {
			end = len(events)
		}
	}

	return QueryResult{
		Events:     events[start:end],
		TotalCount: totalCount,
		Filtered:   len(events),
		HasMore:    end < len(events),
	}, nil
}

func (fl *FileLogger) readEventsFromFile(filePath string, options QueryOptions) ([]Event, int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: open log file: %w", err)
	}
	defer file.Close()

	var events []Event
	totalCount := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		totalCount++

		var event Event
		if err = json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		if fl.matchesFilter(event, options) {
			events = append(events, event)
		}
	}
	if err = scanner.Err(); err != nil {
		return events, totalCount, fmt.Errorf("audit: scan log file: %w", err)
	}
	return events, totalCount, nil
}

func (fl *FileLogger) matchesFilter(event Event, options QueryOptions) bool {
	if options.InstanceID != "" && event.InstanceID != options.InstanceID {
		return false
	}
	if options.Since != nil && event.Timestamp.Before(*options.Since) {
		return false
	}
	if options.Until != nil && event.Timestamp.After(*options.Until) {
		return false
	}
	if options.Action != "" && event.Action != options.Action {
		return false
	}
	if options.Success != nil && event.Success != *options.Success {
		return false
	}
	return true
}

func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.file != nil {
		err := fl.file.Close()
		fl.file = nil
		return err
	}
	return nil
}

func (fl *FileLogger) ensureFileOpen() error {
	if fl.file == nil {
		var err error
		fl.file, err = os.OpenFile(fl.fileOpts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("audit: reopen log file: %w", err)
		}
	}
	return nil
}
