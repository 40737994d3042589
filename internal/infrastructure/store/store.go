package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"sitecap/internal/application/port/output"

	"github.com/adrg/xdg"
)

// Open picks a store implementation from the target's shape: "sqlite:"
// locators and paths ending in .db open the SQLite store, everything
// else is treated as a directory of JSON documents.
func Open(target string, logger output.LoggerPort) (output.CapabilityStore, error) {
	switch {
	case strings.HasPrefix(target, "sqlite:"):
		return OpenSQLite(strings.TrimPrefix(target, "sqlite:"))
	case strings.HasSuffix(target, ".db"):
		return OpenSQLite(target)
	default:
		return NewFileStore(target, logger)
	}
}

// DefaultHistoryPath locates the session audit database under the
// user's data directory, creating parent directories as needed.
func DefaultHistoryPath() (string, error) {
	path, err := xdg.DataFile(filepath.Join("sitecap", "history.db"))
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return path, nil
}
