// Package catalog is the durable system of record for ingested models. The
// vector index can always be rebuilt from it.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/shapeseek/shapeseek/index"
)

// ErrModelNotFound is returned when a model id is not in the catalog.
var ErrModelNotFound = errors.New("catalog: model not found")

// Model is one ingested shape.
type Model struct {
	ID        int64
	Name      string
	Format    string
	BlobKey   string
	Vector    []float32
	CreatedAt time.Time
}

// SQLite stores models in a single-file SQLite database.
type SQLite struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS models (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	format     TEXT NOT NULL,
	blob_key   TEXT NOT NULL,
	vector     BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// OpenSQLite opens (and if necessary creates) a catalog database at path.
// Use ":memory:" for an ephemeral catalog.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: schema init: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Put inserts a model record. The id must be unique.
func (c *SQLite) Put(ctx context.Context, m Model) error {
	vec, err := encodeVector(m.Vector)
	if err != nil {
		return err
	}
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO models(id, name, format, blob_key, vector, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Format, m.BlobKey, vec, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("catalog: put model %d: %w", m.ID, err)
	}
	return nil
}

// Get returns a model by id.
func (c *SQLite) Get(ctx context.Context, id int64) (Model, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, name, format, blob_key, vector, created_at FROM models WHERE id = ?`, id)

	m, err := scanModel(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Model{}, ErrModelNotFound
	}
	return m, err
}

// Delete removes a model by id.
func (c *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrModelNotFound
	}
	return nil
}

// Count returns the number of models in the catalog.
func (c *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n)
	return n, err
}

// Snapshot returns every model's id and vector in insertion order, the form
// an index rebuild consumes.
func (c *SQLite) Snapshot(ctx context.Context) ([]index.Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, vector FROM models ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []index.Entry
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("catalog: model %d: %w", id, err)
		}
		entries = append(entries, index.Entry{ID: id, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Models returns all model records in insertion order.
func (c *SQLite) Models(ctx context.Context) ([]Model, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, format, blob_key, vector, created_at FROM models ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []Model
	for rows.Next() {
		m, err := scanModel(rows.Scan)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// Close closes the underlying database.
func (c *SQLite) Close() error {
	return c.db.Close()
}

func scanModel(scan func(dest ...any) error) (Model, error) {
	var m Model
	var blob []byte
	var created int64
	if err := scan(&m.ID, &m.Name, &m.Format, &m.BlobKey, &blob, &created); err != nil {
		return Model{}, err
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return Model{}, fmt.Errorf("catalog: model %d: %w", m.ID, err)
	}
	m.Vector = vec
	m.CreatedAt = time.Unix(created, 0)
	return m, nil
}
