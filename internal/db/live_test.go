package db

import (
	"os"
	"testing"
)

// TestLiveDatabase reads the configured prompt bank.
// Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	dbPath := DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	prompts, err := store.TaskPrompts()
	if err != nil {
		t.Fatalf("TaskPrompts: %v", err)
	}
	for _, p := range prompts {
		t.Logf("%s [%s] %s", p.ID, p.Kind, p.Description)
	}
}
