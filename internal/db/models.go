// Package db provides read-only SQLite access to a bank of Task 1 prompts.
package db

import "time"

// TaskPrompt is one canned task description.
type TaskPrompt struct {
	ID          string
	Kind        string // line, bar, pie, table, process
	Description string
	CreatedAt   time.Time
}
