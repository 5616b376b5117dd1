package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jhsa24/randomwalk/internal/lineage"
)

// SQLiteRepository keeps collections in <dir>/barw.db.
type SQLiteRepository struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRepository opens or creates the database in dir.
func NewSQLiteRepository(ctx context.Context, dir string) (*SQLiteRepository, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(dir, DBFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteRepository{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (r *SQLiteRepository) Path() string { return r.dbPath }

// Save writes c in a single transaction, replacing any collection of the
// same name.
func (r *SQLiteRepository) Save(ctx context.Context, c *Collection) error {
	if err := prepare(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, c.Name); err != nil {
		return fmt.Errorf("failed to replace collection %s: %w", c.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (id, name, created_at, config, sample_count) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.CreatedAt.UTC().Format(time.RFC3339Nano), c.Config, len(c.Samples)); err != nil {
		return fmt.Errorf("failed to insert collection %s: %w", c.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO walkers (collection_id, sample, walker, parent, sibling, alive, soma, deadline,
		                     x, y, heading, iteration, positions, angles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare walker insert: %w", err)
	}
	defer stmt.Close()

	for sample, s := range c.Samples {
		for i, w := range s.Walkers() {
			positions, err := json.Marshal(w.Positions)
			if err != nil {
				return fmt.Errorf("encoding positions of walker %d: %w", i, err)
			}
			angles, err := json.Marshal(w.Angles)
			if err != nil {
				return fmt.Errorf("encoding angles of walker %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx,
				c.ID.String(), sample, i, nullID(w.Parent), nullID(w.Sibling),
				w.Alive, w.Soma, int64(w.Deadline),
				w.Position.X, w.Position.Y, w.Heading, w.Iteration,
				string(positions), string(angles)); err != nil {
				return fmt.Errorf("failed to insert walker %d of sample %d: %w", i, sample, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads the collection called name.
func (r *SQLiteRepository) Load(ctx context.Context, name string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		c         Collection
		id        string
		createdAt string
		config    sql.NullString
		samples   int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, config, sample_count FROM collections WHERE name = ?`, name).
		Scan(&id, &c.Name, &createdAt, &config, &samples)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", name, err)
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("collection %s has invalid id: %w", name, err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("collection %s has invalid created_at: %w", name, err)
	}
	c.Config = config.String

	walkers := make([][]lineage.Walker, samples)
	rows, err := r.db.QueryContext(ctx, `
		SELECT sample, walker, parent, sibling, alive, soma, deadline,
		       x, y, heading, iteration, positions, angles
		FROM walkers WHERE collection_id = ? ORDER BY sample, walker`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query walkers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sample, walker    int
			parent, sibling   sql.NullInt64
			w                 lineage.Walker
			deadline          int64
			positions, angles string
		)
		if err := rows.Scan(&sample, &walker, &parent, &sibling, &w.Alive, &w.Soma, &deadline,
			&w.Position.X, &w.Position.Y, &w.Heading, &w.Iteration, &positions, &angles); err != nil {
			return nil, fmt.Errorf("failed to scan walker: %w", err)
		}
		if sample < 0 || sample >= samples || walker != len(walkers[sample]) {
			return nil, fmt.Errorf("%w: walker %d of sample %d out of sequence", lineage.ErrInconsistent, walker, sample)
		}
		w.Parent = fromNull(parent)
		w.Sibling = fromNull(sibling)
		w.Deadline = int(deadline)
		if err := json.Unmarshal([]byte(positions), &w.Positions); err != nil {
			return nil, fmt.Errorf("decoding positions of walker %d: %w", walker, err)
		}
		if err := json.Unmarshal([]byte(angles), &w.Angles); err != nil {
			return nil, fmt.Errorf("decoding angles of walker %d: %w", walker, err)
		}
		walkers[sample] = append(walkers[sample], w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read walkers: %w", err)
	}

	c.Samples = make([]*lineage.Store, samples)
	for i := range walkers {
		c.Samples[i] = lineage.FromWalkers(walkers[i])
	}
	return &c, nil
}

// List returns all collections, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at, c.sample_count, COUNT(w.walker)
		FROM collections c LEFT JOIN walkers w ON w.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var id, createdAt string
		if err := rows.Scan(&id, &s.Name, &createdAt, &s.Samples, &s.Walkers); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("collection %s has invalid id: %w", s.Name, err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("collection %s has invalid created_at: %w", s.Name, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the collection called name and its walkers.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

func nullID(id lineage.ID) sql.NullInt64 {
	if !id.Valid() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func fromNull(n sql.NullInt64) lineage.ID {
	if !n.Valid {
		return lineage.NoID
	}
	return lineage.ID(n.Int64)
}
