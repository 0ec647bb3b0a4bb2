package session

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pickabook/pkb/internal/model"
)

const currentSchemaVersion = 2

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

func (s *SQLiteStore) migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the single-row session table.
func (s *SQLiteStore) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expire_time TEXT NOT NULL DEFAULT ''
		);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 records when the session was saved.
func (s *SQLiteStore) migrateV2() error {
	migration := `
		ALTER TABLE session ADD COLUMN saved_at TEXT NOT NULL DEFAULT '';
		UPDATE schema_version SET version = 2;
	`
	_, err := s.db.Exec(migration)
	return err
}

// Load returns the stored session, or nil when none is saved.
func (s *SQLiteStore) Load() (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRow(`
		SELECT token, refresh_token, expire_time
		FROM session
		WHERE id = 1
	`).Scan(&sess.Token, &sess.RefreshToken, &sess.ExpireTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save replaces the stored session.
func (s *SQLiteStore) Save(sess *model.Session) error {
	if sess == nil {
		return s.Clear()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO session (id, token, refresh_token, expire_time, saved_at)
		VALUES (1, ?, ?, ?, ?)
	`, sess.Token, sess.RefreshToken, sess.ExpireTime, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Clear deletes the stored session.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM session")
	return err
}
