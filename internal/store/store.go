// Package store persists named sample collections: the lineage stores of
// every sample of one run, plus the configuration that produced them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/pathutil"
)

// ErrNotFound is returned when no collection has the requested name.
var ErrNotFound = errors.New("collection not found")

// Backends understood by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Collection is one saved run.
type Collection struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// Config is the YAML snapshot of the simulation settings.
	Config  string           `json:"config,omitempty"`
	Samples []*lineage.Store `json:"samples"`
}

// Summary describes a saved collection without loading its walkers.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Samples   int       `json:"samples"`
	Walkers   int       `json:"walkers"`
}

// Walkers returns the total number of walker records across all samples.
func (c *Collection) Walkers() int {
	n := 0
	for _, s := range c.Samples {
		n += s.Len()
	}
	return n
}

// Summary returns the listing entry for c.
func (c *Collection) Summary() Summary {
	return Summary{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		Samples:   len(c.Samples),
		Walkers:   c.Walkers(),
	}
}

// Repository saves and loads collections by name. Save replaces any
// existing collection with the same name atomically.
type Repository interface {
	Save(ctx context.Context, c *Collection) error
	Load(ctx context.Context, name string) (*Collection, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// prepare validates c and fills in a missing ID and creation time.
func prepare(c *Collection) error {
	if c == nil {
		return fmt.Errorf("collection is nil")
	}
	if err := pathutil.ValidateName(c.Name); err != nil {
		return err
	}
	for i, s := range c.Samples {
		if s == nil {
			return fmt.Errorf("sample %d is nil", i)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Open returns the repository for backend, keeping its files under dir.
func Open(ctx context.Context, backend, dir string) (Repository, error) {
	switch backend {
	case "", BackendSQLite:
		return NewSQLiteRepository(ctx, dir)
	case BackendMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
