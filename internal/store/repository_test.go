package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
)

// sampleStore builds a small valid lineage: a root that walks two steps and
// branches, with one child walking a step.
func sampleStore(offset float64) *lineage.Store {
	s := lineage.NewStore()
	root := s.AddRoot(particle.New(particle.Point{X: offset}, 0), 2)
	for range 2 {
		w := s.Walker(root)
		w.Move(1)
		w.Iteration++
		s.Record(root)
	}
	s.Kill(root)
	left, _ := s.Branch(root, math.Pi/3, math.Pi/4, 5, lineage.NoDeadline)
	w := s.Walker(left)
	w.Move(0.5)
	w.Iteration++
	s.Record(left)
	return s
}

func testCollection(name string) *Collection {
	return &Collection{
		Name:    name,
		Config:  "simulation:\n  steps: 3\n",
		Samples: []*lineage.Store{sampleStore(0), sampleStore(10)},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return string(data)
}

// repositories runs fn against every Repository implementation.
func repositories(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()
	impls := map[string]func(t *testing.T) Repository{
		"memory": func(t *testing.T) Repository { return NewMemoryRepository() },
		"sqlite": func(t *testing.T) Repository {
			repo, err := NewSQLiteRepository(context.Background(), t.TempDir())
			if err != nil {
				t.Fatalf("NewSQLiteRepository() error = %v", err)
			}
			return repo
		},
	}
	for name, open := range impls {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			defer repo.Close()
			fn(t, repo)
		})
	}
}

func TestRepository_SaveLoad(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		c := testCollection("run1")
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if c.ID == uuid.Nil {
			t.Error("Save() did not assign an ID")
		}
		if c.CreatedAt.IsZero() {
			t.Error("Save() did not set CreatedAt")
		}

		got, err := repo.Load(ctx, "run1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.ID != c.ID || got.Name != c.Name || got.Config != c.Config {
			t.Errorf("Load() metadata = %+v, want %+v", got, c)
		}
		if !got.CreatedAt.Equal(c.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, c.CreatedAt)
		}
		if len(got.Samples) != 2 {
			t.Fatalf("len(Samples) = %d, want 2", len(got.Samples))
		}
		for i := range c.Samples {
			if mustJSON(t, got.Samples[i]) != mustJSON(t, c.Samples[i]) {
				t.Errorf("sample %d differs after round trip", i)
			}
			if err := got.Samples[i].Validate(); err != nil {
				t.Errorf("sample %d invalid after load: %v", i, err)
			}
		}
		if d := got.Samples[0].Walker(2).Deadline; d != lineage.NoDeadline {
			t.Errorf("NoDeadline not preserved, got %d", d)
		}
	})
}

func TestRepository_SaveReplaces(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		if err := repo.Save(ctx, testCollection("run")); err != nil {
			t.Fatal(err)
		}
		replacement := &Collection{Name: "run", Samples: []*lineage.Store{sampleStore(3)}}
		if err := repo.Save(ctx, replacement); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Load(ctx, "run")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Samples) != 1 || got.ID != replacement.ID {
			t.Errorf("Load() after replace = %d samples, id %v", len(got.Samples), got.ID)
		}

		list, err := repo.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 {
			t.Errorf("List() = %d entries, want 1", len(list))
		}
	})
}

func TestRepository_List(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		older := testCollection("older")
		older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := testCollection("newer")
		newer.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		newer.Samples = newer.Samples[:1]

		for _, c := range []*Collection{older, newer} {
			if err := repo.Save(ctx, c); err != nil {
				t.Fatal(err)
			}
		}

		list, err := repo.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("List() = %d entries, want 2", len(list))
		}
		if list[0].Name != "newer" || list[1].Name != "older" {
			t.Errorf("List() order = %s, %s", list[0].Name, list[1].Name)
		}
		if list[0].Samples != 1 || list[0].Walkers != 3 {
			t.Errorf("newer summary = %+v", list[0])
		}
		if list[1].Samples != 2 || list[1].Walkers != 6 {
			t.Errorf("older summary = %+v", list[1])
		}
	})
}

func TestRepository_NotFound(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		if _, err := repo.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestRepository_Delete(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		if err := repo.Save(ctx, testCollection("gone")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Load(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() after delete error = %v", err)
		}
	})
}

func TestRepository_RejectsInvalid(t *testing.T) {
	repositories(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		tests := []struct {
			name string
			c    *Collection
		}{
			{"nil", nil},
			{"bad name", &Collection{Name: "../escape"}},
			{"nil sample", &Collection{Name: "ok", Samples: []*lineage.Store{nil}}},
		}
		for _, tt := range tests {
			if err := repo.Save(ctx, tt.c); err == nil {
				t.Errorf("Save(%s) succeeded, want error", tt.name)
			}
		}
	})
}

func TestMemoryRepository_Isolation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := testCollection("iso")
	if err := repo.Save(ctx, c); err != nil {
		t.Fatal(err)
	}

	c.Samples[0].Walker(0).Positions[0].X = 99

	got, err := repo.Load(ctx, "iso")
	if err != nil {
		t.Fatal(err)
	}
	if got.Samples[0].Walker(0).Positions[0].X == 99 {
		t.Error("repository shares walker slices with the caller")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{"", BackendSQLite, BackendMemory} {
		repo, err := Open(ctx, backend, t.TempDir())
		if err != nil {
			t.Fatalf("Open(%q) error = %v", backend, err)
		}
		repo.Close()
	}
	if _, err := Open(ctx, "postgres", t.TempDir()); err == nil {
		t.Error("Open() accepted unknown backend")
	}
}
