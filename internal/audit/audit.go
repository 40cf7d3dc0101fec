// Package audit provides an append-only change log of repository
// mutations.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Operations recorded in the log.
const (
	OpCreate        = "create"
	OpUpdate        = "update"
	OpMove          = "move"
	OpDelete        = "delete"
	OpSetContent    = "set-content"
	OpDeleteContent = "delete-content"
)

// Entry represents a single change log entry.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	Operation string                 `json:"op"`
	ID        string                 `json:"id"`
	Type      string                 `json:"type,omitempty"`
	Path      string                 `json:"path,omitempty"`
	User      string                 `json:"user,omitempty"`
	Changes   map[string]interface{} `json:"changes,omitempty"` // property -> new value, nil when removed
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Logger appends entries to a JSON-lines file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates a logger writing to path. An empty path disables logging.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Enabled returns true if the logger writes anywhere.
func (l *Logger) Enabled() bool {
	return l.path != ""
}

// Log appends entries to the log in one write.
func (l *Logger) Log(entries ...Entry) error {
	if !l.Enabled() || len(entries) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var buf []byte
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now().UTC()
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Read reads all entries, oldest first. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Since    time.Time
	ObjectID string
	Limit    int // newest entries kept when positive
}

// Query reads the entries matching f, oldest first.
func (l *Logger) Query(f Filter) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range all {
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		if f.ObjectID != "" && e.ID != f.ObjectID {
			continue
		}
		out = append(out, e)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}
