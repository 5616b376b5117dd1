// Package pathutil guards the file names and paths that barw reads and
// writes: collection names, archive locations, and redaction for logs.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the name of the per-project and per-user data directory.
const DataDirName = ".barw"

// RedactPath shortens a path to .../<parent>/<base> for error messages and
// logs, e.g. "/home/user/.barw/barw.db" becomes ".../.barw/barw.db".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidatePath reports an error unless path resolves, after cleaning and
// symlink resolution of its existing ancestors, to somewhere inside one of
// allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return fmt.Errorf("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return fmt.Errorf("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, 0):
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}
	dir, err := resolveExisting(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExisting(allowedAbs)
		if err != nil {
			continue
		}
		if within(resolved, allowedResolved) {
			return nil
		}
	}
	return fmt.Errorf("path validation failed: %q is outside allowed directories", RedactPath(abs))
}

// resolveExisting evaluates symlinks on the longest existing prefix of dir
// and re-appends the components that do not exist yet.
func resolveExisting(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

func within(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+string(os.PathSeparator))
}

// ArchiveDirs returns the directories archives may be written to or read
// from: ~/.barw/backups and, when projectRoot is set,
// <projectRoot>/.barw/backups.
func ArchiveDirs(projectRoot string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dirs := []string{filepath.Join(home, DataDirName, "backups")}
	if projectRoot != "" {
		dirs = append(dirs, filepath.Join(projectRoot, DataDirName, "backups"))
	}
	return dirs, nil
}
