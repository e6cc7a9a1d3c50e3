package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides read-only access to the prompt bank.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ielts-simulator", "prompts.sqlite")
}

// Open opens the database in read-only mode.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TaskPrompts returns all prompts ordered by id.
func (s *Store) TaskPrompts() ([]TaskPrompt, error) {
	return s.query(`
		SELECT id, kind, description, createdAt
		FROM tasks
		ORDER BY id ASC
	`)
}

// TaskPromptsByKind returns the prompts of one chart kind, ordered by id.
func (s *Store) TaskPromptsByKind(kind string) ([]TaskPrompt, error) {
	return s.query(`
		SELECT id, kind, description, createdAt
		FROM tasks
		WHERE kind = ?
		ORDER BY id ASC
	`, kind)
}

// Descriptions returns the description of every prompt.
func (s *Store) Descriptions() ([]string, error) {
	prompts, err := s.TaskPrompts()
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, errors.New("prompt bank is empty")
	}
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, p.Description)
	}
	return out, nil
}

func (s *Store) query(q string, args ...any) ([]TaskPrompt, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var prompts []TaskPrompt
	for rows.Next() {
		var p TaskPrompt
		var createdAt float64
		if err := rows.Scan(&p.ID, &p.Kind, &p.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		p.CreatedAt = timeFromUnix(createdAt)
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
