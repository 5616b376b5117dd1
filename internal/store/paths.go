package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/pathutil"
)

// DBFile is the SQLite database file name inside a data directory.
const DBFile = "barw.db"

// GlobalPath returns ~/.barw.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, pathutil.DataDirName), nil
}

// LocalPath returns <projectRoot>/.barw.
func LocalPath(projectRoot string) string {
	return filepath.Join(projectRoot, pathutil.DataDirName)
}

// DataDir resolves the data directory for scope.
func DataDir(scope constants.Scope, projectRoot string) (string, error) {
	switch scope {
	case constants.ScopeGlobal:
		return GlobalPath()
	case constants.ScopeLocal:
		return LocalPath(projectRoot), nil
	default:
		return "", fmt.Errorf("invalid scope %q", scope)
	}
}

// EnsureDir creates dir if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", pathutil.RedactPath(dir), err)
	}
	return nil
}
