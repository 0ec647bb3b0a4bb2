// Package session persists the login credential between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pickabook/pkb/internal/model"
)

const (
	jsonFile   = "session.json"
	sqliteFile = "session.db"
)

// Backend names accepted by Open.
const (
	BackendAuto   = "auto"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown session backend")

// Store keeps at most one session.
type Store interface {
	// Load returns the saved session, or nil when there is none.
	Load() (*model.Session, error)
	Save(s *model.Session) error
	Clear() error
	Close() error
}

// JSONStore implements Store using a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a new JSONStore with the given file path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the session file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the session from the JSON file.
// Returns nil if the file doesn't exist.
func (s *JSONStore) Load() (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session to the JSON file, readable by the owner only.
func (s *JSONStore) Save(sess *model.Session) error {
	if sess == nil {
		return s.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear removes the session file. A missing file is not an error.
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error {
	return nil
}

// DefaultDir returns the default session directory: ~/.config/pkb
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "pkb"), nil
}

// Open opens the session store in dir. BackendAuto (or "") prefers SQLite
// if the database file exists, otherwise falls back to JSON.
func Open(dir, backend string) (Store, error) {
	sqlitePath := filepath.Join(dir, sqliteFile)
	jsonPath := filepath.Join(dir, jsonFile)

	switch backend {
	case "", BackendAuto:
		if _, err := os.Stat(sqlitePath); err == nil {
			return NewSQLiteStore(sqlitePath)
		}
		return NewJSONStore(jsonPath), nil
	case BackendJSON:
		return NewJSONStore(jsonPath), nil
	case BackendSQLite:
		return NewSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
