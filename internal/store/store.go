package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database. It plays the role of the document
// store: per-statement writes are atomic, multi-row attempt inserts are
// wrapped in a transaction, and there are no cross-table transactions
// beyond that.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		gender TEXT NOT NULL DEFAULT '',
		consent_accepted INTEGER NOT NULL DEFAULT 0,
		consent_accepted_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		consent_accepted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS test_attempts (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		test_type TEXT NOT NULL,
		mcq_completed INTEGER NOT NULL DEFAULT 0,
		mcq_skipped INTEGER NOT NULL DEFAULT 0,
		subjective_completed INTEGER NOT NULL DEFAULT 0,
		is_real_patient_data INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS mcq_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		answer TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (attempt_id) REFERENCES test_attempts(id)
	);

	CREATE TABLE IF NOT EXISTS response_records (
		id TEXT PRIMARY KEY,
		test_id TEXT NOT NULL,
		question_id INTEGER NOT NULL,
		video_path TEXT NOT NULL,
		recording_duration INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (test_id) REFERENCES test_attempts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_user_created
		ON test_attempts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_responses_test
		ON response_records(test_id);
	`
	_, err := s.db.Exec(schema)
	return err
}
