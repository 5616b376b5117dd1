package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps collections in memory, for tests and throwaway
// runs. Collections are stored encoded so that callers never share walker
// slices with the repository.
type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[string][]byte
	summaries   map[string]Summary
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		collections: make(map[string][]byte),
		summaries:   make(map[string]Summary),
	}
}

// Save stores a copy of c, replacing any collection of the same name.
func (r *MemoryRepository) Save(ctx context.Context, c *Collection) error {
	if err := prepare(c); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", c.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[c.Name] = data
	r.summaries[c.Name] = c.Summary()
	return nil
}

// Load returns a copy of the collection called name.
func (r *MemoryRepository) Load(ctx context.Context, name string) (*Collection, error) {
	r.mu.RLock()
	data, ok := r.collections[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding collection %s: %w", name, err)
	}
	return &c, nil
}

// List returns all collections, newest first.
func (r *MemoryRepository) List(ctx context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.summaries))
	for _, s := range r.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes the collection called name.
func (r *MemoryRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.collections, name)
	delete(r.summaries, name)
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error { return nil }
