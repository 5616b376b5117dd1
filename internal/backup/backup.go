package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhsa24/randomwalk/internal/store"
)

// ArchiveExt is the file extension of archives.
const ArchiveExt = ".barw.gz"

// ErrExists is returned by Restore when the target name is taken and
// replacing was not requested.
var ErrExists = errors.New("collection already exists")

// Backup loads the collection called name from repo and writes it to path.
func Backup(ctx context.Context, repo store.Repository, name, path string) (*Header, error) {
	c, err := repo.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return WriteFile(path, c)
}

// RestoreOptions controls Restore.
type RestoreOptions struct {
	// Name overrides the collection name stored in the archive.
	Name string
	// Replace allows overwriting an existing collection.
	Replace bool
}

// Restore reads the archive at path, checks every sample's lineage, and
// saves the collection into repo.
func Restore(ctx context.Context, repo store.Repository, path string, opts RestoreOptions) (*store.Collection, error) {
	c, _, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.Name != "" && opts.Name != c.Name {
		c.Name = opts.Name
		c.ID = uuid.Nil
	}

	for i, s := range c.Samples {
		if s == nil {
			return nil, fmt.Errorf("sample %d is missing", i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	if !opts.Replace {
		_, err := repo.Load(ctx, c.Name)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %s", ErrExists, c.Name)
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	if err := repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("saving %s: %w", c.Name, err)
	}
	return c, nil
}

// GeneratePath returns a timestamped archive path for name inside dir.
func GeneratePath(dir, name string) string {
	ts := time.Now().UTC().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", name, ts, ArchiveExt))
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ArchiveExt)
}
